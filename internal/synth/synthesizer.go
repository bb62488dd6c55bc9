// Package synth turns pain points into costed remediation proposals, gated
// by budget range and treasury capacity.
package synth

import (
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/quillback/autoscout/internal/model"
)

// Cost surcharges applied on top of the base cost: 50% token surcharge,
// 30% risk buffer, 40% margin.
const costMultiplier = 1 + 0.5 + 0.3 + 0.4

// capacityShare limits a proposal's cost to this share of the treasury's
// available balance, mirroring the ledger's own reservation cap so a viable
// proposal is always reservable.
const capacityShare = 0.2

// BudgetRange bounds acceptable proposal costs in becoin.
type BudgetRange struct {
	Min float64
	Max float64
}

// Request carries everything needed to synthesize one proposal.
type Request struct {
	PainPoint model.PainPoint
	Budget    BudgetRange
	TargetROI float64
	Treasury  model.TreasurySnapshot
}

// Generate costs a remediation proposal for a pain point. A nil result means
// the pain point is not viable under the current budget and treasury
// capacity; that is a routine business outcome, not an error.
func Generate(req Request) *model.Proposal {
	pp := req.PainPoint
	cost := Cost(pp)

	if cost < req.Budget.Min || cost > req.Budget.Max {
		slog.Debug("Proposal outside budget range",
			"pain_point", pp.ID,
			"cost", cost,
			"budget_min", req.Budget.Min,
			"budget_max", req.Budget.Max)
		return nil
	}
	if cost > req.Treasury.Available*capacityShare {
		slog.Debug("Proposal exceeds treasury capacity",
			"pain_point", pp.ID,
			"cost", cost,
			"available", req.Treasury.Available)
		return nil
	}

	tmpl := templateFor(pp.Category)
	team := teamFor(pp)

	return &model.Proposal{
		ID:                uuid.NewString(),
		Title:             tmpl.title(pp),
		Description:       tmpl.description(pp),
		PainPoint:         pp,
		Cost:              cost,
		Timeline:          timelineFor(pp.AutomationPotential),
		Team:              team,
		Deliverables:      tmpl.deliverables(pp),
		SuccessMetrics:    tmpl.successMetrics(pp),
		SavingsMinPerWeek: pp.TimeCostMinPerWeek,
		AutomationLevel:   pp.AutomationPotential,
		RiskLevel:         riskFor(pp, cost),
		CreatedAt:         time.Now().UTC(),
	}
}

// Cost computes the remediation cost in becoin:
// base = 100 x severity x (2 - automation potential) x (1 + timeCost/300),
// then surcharges bring the total to base x 2.2, rounded to a whole unit.
func Cost(pp model.PainPoint) float64 {
	base := 100 * severityMultiplier(pp.Severity) *
		(2 - pp.AutomationPotential) *
		(1 + pp.TimeCostMinPerWeek/300)
	return math.Round(base * costMultiplier)
}

func severityMultiplier(s model.Severity) float64 {
	switch s {
	case model.SeverityCritical:
		return 3.0
	case model.SeverityHigh:
		return 2.0
	case model.SeverityMedium:
		return 1.5
	default:
		return 1.0
	}
}

// timelineFor buckets delivery time inversely to automation potential: the
// more automatable the problem, the faster the fix ships.
func timelineFor(automationPotential float64) string {
	switch {
	case automationPotential >= 0.9:
		return "3-5 days"
	case automationPotential >= 0.8:
		return "1-2 weeks"
	case automationPotential >= 0.7:
		return "2-3 weeks"
	default:
		return "3-4 weeks"
	}
}

// primaryTeams maps each pain category to up to two specialist roles.
var primaryTeams = map[model.PainCategory][]string{
	model.PainRepetitiveTask:     {"automation engineer", "workflow specialist"},
	model.PainRecurringError:     {"reliability engineer", "automation engineer"},
	model.PainWorkflowBottleneck: {"process analyst", "integration engineer"},
	model.PainManualProcess:      {"automation engineer", "tooling specialist"},
}

// teamFor selects the remediation team, appending a verification role for
// high and critical severities.
func teamFor(pp model.PainPoint) []string {
	team := append([]string(nil), primaryTeams[pp.Category]...)
	if pp.Severity == model.SeverityHigh || pp.Severity == model.SeverityCritical {
		team = append(team, "qa engineer")
	}
	return team
}

// riskFor accumulates a risk score from low automation potential, high cost
// and critical severity.
func riskFor(pp model.PainPoint, cost float64) model.RiskLevel {
	score := 0
	switch {
	case pp.AutomationPotential < 0.6:
		score += 2
	case pp.AutomationPotential < 0.8:
		score++
	}
	switch {
	case cost > 400:
		score += 2
	case cost > 250:
		score++
	}
	if pp.Severity == model.SeverityCritical {
		score++
	}

	switch {
	case score >= 4:
		return model.RiskHigh
	case score >= 2:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}
