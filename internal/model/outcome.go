package model

import "time"

// ActualOutcome records what really happened after a proposal was delivered.
// Created once per delivered project, immutable thereafter.
type ActualOutcome struct {
	RecordedAt time.Time `json:"recorded_at"`
	ProposalID string    `json:"proposal_id"`
	ProjectID  string    `json:"project_id"`
	Comments   string    `json:"comments,omitempty"`
	// Category is copied from the originating proposal's pain point; empty
	// when the proposal could not be located.
	Category PainCategory `json:"category,omitempty"`
	// Dimensions holds the realized four-dimension scores, 0-100 each.
	Dimensions ImpactBreakdown `json:"dimensions"`
	// ActualImpact is the mean of the four dimension scores.
	ActualImpact     float64 `json:"actual_impact"`
	UserSatisfaction float64 `json:"user_satisfaction"`
	ActualCost       float64 `json:"actual_cost"`
	ActualROI        float64 `json:"actual_roi"`
	// PredictionAccuracy is 100 minus the absolute prediction error, floored
	// at zero; zero when no prediction existed.
	PredictionAccuracy float64 `json:"prediction_accuracy"`
	ActualTimeline     string  `json:"actual_timeline,omitempty"`
	WouldRecommend     bool    `json:"would_recommend"`
}

// TrainingExample pairs a prediction with its realized outcome so the weight
// trainer can learn from the gap. Only created when a prediction existed.
type TrainingExample struct {
	CreatedAt  time.Time        `json:"created_at"`
	Proposal   Proposal         `json:"proposal"`
	Prediction ImpactPrediction `json:"prediction"`
	Outcome    ActualOutcome    `json:"outcome"`
	// LearningWeight emphasizes surprising examples, 0-1.
	LearningWeight float64 `json:"learning_weight"`
}

// ModelKind names a trainable estimator.
type ModelKind string

// Model kind constants.
const (
	ModelImpactPredictor ModelKind = "impact_predictor"
	ModelCostEstimator   ModelKind = "cost_estimator"
)

// TrainedModel is a versioned set of named feature weights produced by a
// training run. Versions increase monotonically per kind.
type TrainedModel struct {
	TrainedAt       time.Time          `json:"trained_at"`
	Kind            ModelKind          `json:"kind"`
	Weights         map[string]float64 `json:"weights"`
	Metadata        map[string]string  `json:"metadata,omitempty"`
	Version         int                `json:"version"`
	TrainingSetSize int                `json:"training_set_size"`
	Accuracy        float64            `json:"accuracy"`
}
