package model

import "time"

// RiskLevel grades delivery risk for a proposal.
type RiskLevel string

// Risk level constants.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Proposal is a costed remediation plan for a single pain point. Immutable
// after creation except for the attached prediction, which is set once before
// the session is persisted.
type Proposal struct {
	CreatedAt      time.Time         `json:"created_at"`
	Prediction     *ImpactPrediction `json:"prediction,omitempty"`
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Timeline       string            `json:"timeline"`
	RiskLevel      RiskLevel         `json:"risk_level"`
	PainPoint      PainPoint         `json:"pain_point"`
	Team           []string          `json:"team"`
	Deliverables   []string          `json:"deliverables"`
	SuccessMetrics []string          `json:"success_metrics"`
	Cost           float64           `json:"cost"`
	// SavingsMinPerWeek is the expected weekly time savings in minutes.
	SavingsMinPerWeek float64 `json:"savings_min_per_week"`
	// AutomationLevel is the degree of automation delivered, 0-1.
	AutomationLevel float64 `json:"automation_level"`
}

// ImpactPrediction scores a proposal along the four impact dimensions and
// derives expected ROI and confidence. Pure derivation; attached to exactly
// one proposal.
type ImpactPrediction struct {
	Rationale string `json:"rationale"`
	// OverallImpact is the integer average of the four dimensions, 0-100.
	OverallImpact int             `json:"overall_impact"`
	ExpectedROI   float64         `json:"expected_roi"`
	Confidence    float64         `json:"confidence"`
	Dimensions    ImpactBreakdown `json:"dimensions"`
}

// ImpactBreakdown holds the four 0-100 impact sub-scores.
type ImpactBreakdown struct {
	TimeSavings     float64 `json:"time_savings"`
	ProblemSolution float64 `json:"problem_solution"`
	Usability       float64 `json:"usability"`
	Sustainability  float64 `json:"sustainability"`
}
