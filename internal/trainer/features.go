package trainer

import (
	"github.com/quillback/autoscout/internal/model"
)

// Normalization divisors keeping feature values near the unit interval.
const (
	timeCostScale = 600
	costScale     = 1000
	teamScale     = 5
	savingsScale  = 300
	impactScale   = 100
	roiScale      = 10
)

// featureVector is a fixed named-feature mapping extracted from one training
// example. Feature names double as weight keys in the persisted model.
type featureVector map[string]float64

// baseFeatures are shared by both estimators.
func baseFeatures(ex *model.TrainingExample) featureVector {
	pp := ex.Proposal.PainPoint
	f := featureVector{
		"sev_low":              oneHot(pp.Severity == model.SeverityLow),
		"sev_medium":           oneHot(pp.Severity == model.SeverityMedium),
		"sev_high":             oneHot(pp.Severity == model.SeverityHigh),
		"sev_critical":         oneHot(pp.Severity == model.SeverityCritical),
		"time_cost":            pp.TimeCostMinPerWeek / timeCostScale,
		"automation_potential": pp.AutomationPotential,
		"cost":                 ex.Proposal.Cost / costScale,
		"team_size":            float64(len(ex.Proposal.Team)) / teamScale,
		"risk_low":             oneHot(ex.Proposal.RiskLevel == model.RiskLow),
		"risk_medium":          oneHot(ex.Proposal.RiskLevel == model.RiskMedium),
		"risk_high":            oneHot(ex.Proposal.RiskLevel == model.RiskHigh),
		"expected_savings":     ex.Proposal.SavingsMinPerWeek / savingsScale,
		"automation_level":     ex.Proposal.AutomationLevel,
	}
	return f
}

// impactFeatures extend the base vector with the original prediction, so the
// impact model can learn how far its own forecasts drift.
func impactFeatures(ex *model.TrainingExample) featureVector {
	f := baseFeatures(ex)
	f["pred_impact"] = float64(ex.Prediction.OverallImpact) / impactScale
	f["pred_roi"] = ex.Prediction.ExpectedROI / roiScale
	f["pred_confidence"] = ex.Prediction.Confidence
	return f
}

// costFeatures is the base vector; the cost estimator has no prediction
// inputs.
func costFeatures(ex *model.TrainingExample) featureVector {
	return baseFeatures(ex)
}

func oneHot(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
