// Package forecast scores proposals along four impact dimensions and derives
// expected ROI and confidence. Predict is a pure function of the proposal,
// so the same proposal always forecasts identically.
package forecast

import (
	"fmt"
	"math"
	"strings"

	"github.com/quillback/autoscout/internal/model"
)

// ROI conversion constants: weekly minutes become a monthly monetary value at
// 100 becoin per hour over a six-month horizon.
const (
	weeksPerMonth  = 4.33
	becoinPerHour  = 100
	horizonMonths  = 6
	maxConfidence  = 1.0
	minConfidence  = 0.3
	baseConfidence = 0.5
)

// Predict forecasts a proposal's impact.
func Predict(p *model.Proposal) model.ImpactPrediction {
	dims := model.ImpactBreakdown{
		TimeSavings:     timeSavingsScore(p.SavingsMinPerWeek),
		ProblemSolution: problemSolutionScore(p),
		Usability:       usabilityScore(p),
		Sustainability:  sustainabilityScore(p),
	}

	overall := int((dims.TimeSavings + dims.ProblemSolution + dims.Usability + dims.Sustainability) / 4)

	return model.ImpactPrediction{
		OverallImpact: overall,
		ExpectedROI:   expectedROI(p.SavingsMinPerWeek, overall, p.Cost),
		Confidence:    confidence(p),
		Dimensions:    dims,
		Rationale:     rationale(p, dims, overall),
	}
}

// timeSavingsScore is a step function of expected weekly minutes saved.
func timeSavingsScore(minPerWeek float64) float64 {
	switch {
	case minPerWeek >= 300:
		return 100
	case minPerWeek >= 180:
		return 90
	case minPerWeek >= 120:
		return 80
	case minPerWeek >= 60:
		return 70
	case minPerWeek >= 30:
		return 60
	case minPerWeek >= 15:
		return 50
	case minPerWeek >= 5:
		return 40
	default:
		return 30
	}
}

func severityBase(s model.Severity) float64 {
	switch s {
	case model.SeverityCritical:
		return 100
	case model.SeverityHigh:
		return 80
	case model.SeverityMedium:
		return 60
	default:
		return 40
	}
}

func problemSolutionScore(p *model.Proposal) float64 {
	score := severityBase(p.PainPoint.Severity) * p.AutomationLevel
	switch p.RiskLevel {
	case model.RiskLow:
		score *= 1.1
	case model.RiskHigh:
		score *= 0.9
	}
	return math.Min(score, 100)
}

func usabilityScore(p *model.Proposal) float64 {
	score := 70 + p.AutomationLevel*20
	switch {
	case len(p.Team) <= 2:
		score += 10
	case len(p.Team) >= 4:
		score -= 10
	}
	if mentionsDocumentation(p.Deliverables) {
		score += 10
	}
	return math.Max(0, math.Min(score, 100))
}

func mentionsDocumentation(deliverables []string) bool {
	for _, d := range deliverables {
		lower := strings.ToLower(d)
		if strings.Contains(lower, "documentation") || strings.Contains(lower, "guide") {
			return true
		}
	}
	return false
}

func sustainabilityScore(p *model.Proposal) float64 {
	score := 60.0
	switch p.PainPoint.Severity {
	case model.SeverityCritical:
		score += 30
	case model.SeverityHigh:
		score += 20
	case model.SeverityMedium:
		score += 10
	}
	switch {
	case p.SavingsMinPerWeek >= 120:
		score += 20
	case p.SavingsMinPerWeek >= 60:
		score += 10
	}
	score += p.AutomationLevel * 10
	return math.Min(score, 100)
}

// expectedROI converts weekly minutes saved into a six-month monetary value,
// scales by overall impact and divides by cost. Rounded to one decimal.
func expectedROI(minPerWeek float64, overall int, cost float64) float64 {
	if cost <= 0 {
		return 0
	}
	monthlyHours := minPerWeek * weeksPerMonth / 60
	sixMonthValue := monthlyHours * becoinPerHour * horizonMonths
	scaled := sixMonthValue * float64(overall) / 100
	return math.Round(scaled/cost*10) / 10
}

func confidence(p *model.Proposal) float64 {
	c := baseConfidence
	switch p.RiskLevel {
	case model.RiskLow:
		c += 0.2
	case model.RiskHigh:
		c -= 0.1
	}
	c += p.AutomationLevel * 0.2
	if p.PainPoint.Severity == model.SeverityHigh || p.PainPoint.Severity == model.SeverityCritical {
		c += 0.1
	}
	return math.Max(minConfidence, math.Min(c, maxConfidence))
}

func rationale(p *model.Proposal, dims model.ImpactBreakdown, overall int) string {
	return fmt.Sprintf(
		"%s severity %s with %.0f%% automation: time savings %.0f, problem fit %.0f, usability %.0f, sustainability %.0f (overall %d)",
		p.PainPoint.Severity, p.PainPoint.Category, p.AutomationLevel*100,
		dims.TimeSavings, dims.ProblemSolution, dims.Usability, dims.Sustainability, overall)
}
