// Package classify maps behavioral patterns to named pain points with
// severity, time cost and automation potential.
package classify

import (
	"fmt"

	"github.com/quillback/autoscout/internal/model"
)

// Severity score boundaries. The score is frequency x time cost x confidence.
const (
	criticalScore = 1000
	highScore     = 500
	mediumScore   = 200
)

// Classify evaluates the rule table once per pattern. Each pattern yields at
// most one pain point; patterns in the workflow and search categories are
// recognised upstream but have no rule here and produce nothing.
func Classify(patterns []model.BehavioralPattern) []model.PainPoint {
	painPoints := make([]model.PainPoint, 0, len(patterns))
	for i := range patterns {
		if pp := classifyOne(&patterns[i]); pp != nil {
			painPoints = append(painPoints, *pp)
		}
	}
	return painPoints
}

func classifyOne(p *model.BehavioralPattern) *model.PainPoint {
	switch {
	case p.Category == model.PatternRepetitive && p.Frequency > 5:
		return &model.PainPoint{
			ID:                  painPointID(p),
			Category:            model.PainRepetitiveTask,
			Severity:            severityFor(p),
			Description:         p.Description,
			SourcePatternIDs:    []string{p.ID},
			TimeCostMinPerWeek:  p.TimeCostMin,
			AutomationPotential: 0.9,
		}
	case p.Category == model.PatternError && p.Frequency > 3:
		return &model.PainPoint{
			ID:                  painPointID(p),
			Category:            model.PainRecurringError,
			Severity:            model.SeverityHigh,
			Description:         p.Description,
			SourcePatternIDs:    []string{p.ID},
			TimeCostMinPerWeek:  2 * p.TimeCostMin,
			AutomationPotential: 0.85,
		}
	case p.Category == model.PatternBottleneck && p.TimeCostMin > 60:
		return &model.PainPoint{
			ID:                  painPointID(p),
			Category:            model.PainWorkflowBottleneck,
			Severity:            model.SeverityMedium,
			Description:         p.Description,
			SourcePatternIDs:    []string{p.ID},
			TimeCostMinPerWeek:  p.TimeCostMin,
			AutomationPotential: 0.75,
		}
	default:
		return nil
	}
}

// severityFor ranks a pattern by its combined score.
func severityFor(p *model.BehavioralPattern) model.Severity {
	score := float64(p.Frequency) * p.TimeCostMin * p.Confidence
	switch {
	case score > criticalScore:
		return model.SeverityCritical
	case score > highScore:
		return model.SeverityHigh
	case score > mediumScore:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

func painPointID(p *model.BehavioralPattern) string {
	return fmt.Sprintf("pp-%s", p.ID)
}
