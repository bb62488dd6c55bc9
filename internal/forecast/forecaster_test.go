package forecast

import (
	"math"
	"testing"

	"github.com/quillback/autoscout/internal/model"
)

func testProposal() *model.Proposal {
	return &model.Proposal{
		ID:    "prop-1",
		Title: "Automate: repeated action: deploy",
		PainPoint: model.PainPoint{
			Category: model.PainRepetitiveTask,
			Severity: model.SeverityHigh,
		},
		Cost:              678,
		Timeline:          "1-2 weeks",
		Team:              []string{"automation engineer", "workflow specialist", "qa engineer"},
		Deliverables:      []string{"automation script", "runbook documentation"},
		SavingsMinPerWeek: 120,
		AutomationLevel:   0.85,
		RiskLevel:         model.RiskMedium,
	}
}

func TestPredict(t *testing.T) {
	p := testProposal()
	pred := Predict(p)

	if pred.Dimensions.TimeSavings != 80 {
		t.Errorf("TimeSavings = %v, want 80", pred.Dimensions.TimeSavings)
	}
	// 80 severity base x 0.85 automation, medium risk unadjusted.
	if pred.Dimensions.ProblemSolution != 68 {
		t.Errorf("ProblemSolution = %v, want 68", pred.Dimensions.ProblemSolution)
	}
	// 70 + 0.85x20, three-member team, documentation bonus.
	if pred.Dimensions.Usability != 97 {
		t.Errorf("Usability = %v, want 97", pred.Dimensions.Usability)
	}
	// 60 + 20 high severity + 20 savings + 8.5 automation, capped at 100.
	if pred.Dimensions.Sustainability != 100 {
		t.Errorf("Sustainability = %v, want 100", pred.Dimensions.Sustainability)
	}
	if pred.OverallImpact != 86 {
		t.Errorf("OverallImpact = %d, want 86", pred.OverallImpact)
	}
	// 120 min/wk -> 8.66 hr/mo -> 5196 becoin over six months, scaled by
	// 86/100 and divided by cost 678.
	if pred.ExpectedROI != 6.6 {
		t.Errorf("ExpectedROI = %v, want 6.6", pred.ExpectedROI)
	}
	// 0.5 base + 0.17 automation + 0.1 high severity.
	if math.Abs(pred.Confidence-0.77) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.77", pred.Confidence)
	}
	if pred.Rationale == "" {
		t.Error("Rationale is empty")
	}
}

func TestPredictIsDeterministic(t *testing.T) {
	p := testProposal()
	first := Predict(p)
	second := Predict(p)

	if first != second {
		t.Errorf("repeated predictions differ: %+v vs %+v", first, second)
	}
}

func TestTimeSavingsScore(t *testing.T) {
	tests := []struct {
		minutes float64
		want    float64
	}{
		{400, 100},
		{300, 100},
		{180, 90},
		{120, 80},
		{60, 70},
		{30, 60},
		{15, 50},
		{5, 40},
		{2, 30},
		{0, 30},
	}

	for _, tt := range tests {
		if got := timeSavingsScore(tt.minutes); got != tt.want {
			t.Errorf("timeSavingsScore(%v) = %v, want %v", tt.minutes, got, tt.want)
		}
	}
}

func TestConfidenceClamping(t *testing.T) {
	// Low risk, full automation, critical severity reaches the ceiling.
	high := testProposal()
	high.RiskLevel = model.RiskLow
	high.AutomationLevel = 1.0
	high.PainPoint.Severity = model.SeverityCritical
	if got := confidence(high); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("confidence = %v, want 1.0", got)
	}

	// High risk with no automation.
	low := testProposal()
	low.RiskLevel = model.RiskHigh
	low.AutomationLevel = 0
	low.PainPoint.Severity = model.SeverityLow
	if got := confidence(low); math.Abs(got-0.4) > 1e-9 {
		t.Errorf("confidence = %v, want 0.4", got)
	}

	// The floor holds even for implausibly bad inputs.
	low.AutomationLevel = -2
	if got := confidence(low); got != minConfidence {
		t.Errorf("confidence = %v, want floor %v", got, minConfidence)
	}
}

func TestExpectedROIZeroCost(t *testing.T) {
	if got := expectedROI(120, 86, 0); got != 0 {
		t.Errorf("expectedROI with zero cost = %v, want 0", got)
	}
}

func TestProblemSolutionRiskAdjustment(t *testing.T) {
	p := testProposal()

	p.RiskLevel = model.RiskLow
	lowRisk := problemSolutionScore(p)
	p.RiskLevel = model.RiskHigh
	highRisk := problemSolutionScore(p)

	if lowRisk <= highRisk {
		t.Errorf("low risk score %v should exceed high risk score %v", lowRisk, highRisk)
	}
	if lowRisk > 100 {
		t.Errorf("score %v exceeds cap", lowRisk)
	}
}
