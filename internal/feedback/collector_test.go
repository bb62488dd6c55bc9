package feedback

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/quillback/autoscout/internal/model"
	"github.com/quillback/autoscout/internal/storage"
)

func newTestCollector(t *testing.T) (*Collector, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return NewCollector(store), store
}

func saveProposal(t *testing.T, store *storage.SQLiteStorage, overallImpact int) string {
	t.Helper()
	proposal := model.Proposal{
		ID:    "prop-1",
		Title: "Automate: repeated action: deploy",
		PainPoint: model.PainPoint{
			ID:       "pp-pat-1",
			Category: model.PainRepetitiveTask,
			Severity: model.SeverityHigh,
		},
		Cost:              678,
		SavingsMinPerWeek: 120,
		AutomationLevel:   0.9,
		RiskLevel:         model.RiskMedium,
		CreatedAt:         time.Now().UTC(),
		Prediction: &model.ImpactPrediction{
			OverallImpact: overallImpact,
			ExpectedROI:   6.6,
			Confidence:    0.77,
		},
	}
	session := &model.Session{
		ID:         "ses-1",
		StartedAt:  time.Now().UTC(),
		Status:     model.SessionCompleted,
		Patterns:   []model.BehavioralPattern{},
		PainPoints: []model.PainPoint{},
		Proposals:  []model.Proposal{proposal},
	}
	if err := store.SaveSession(context.Background(), session); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	return proposal.ID
}

func TestCollectFeedback(t *testing.T) {
	collector, store := newTestCollector(t)
	ctx := context.Background()
	proposalID := saveProposal(t, store, 87)

	outcome, err := collector.CollectFeedback(ctx, proposalID, "proj-1", RawScores{
		Dimensions: model.ImpactBreakdown{
			TimeSavings:     90,
			ProblemSolution: 85,
			Usability:       95,
			Sustainability:  85,
		},
		Satisfaction:   90,
		ActualCost:     650,
		ActualTimeline: "4 days",
		WouldRecommend: true,
	})
	if err != nil {
		t.Fatalf("CollectFeedback() error = %v", err)
	}

	if outcome.ActualImpact != 88.75 {
		t.Errorf("ActualImpact = %v, want 88.75", outcome.ActualImpact)
	}
	// Predicted 87 against actual 88.75 misses by 1.75 points.
	if outcome.PredictionAccuracy != 98.25 {
		t.Errorf("PredictionAccuracy = %v, want 98.25", outcome.PredictionAccuracy)
	}
	if outcome.Category != model.PainRepetitiveTask {
		t.Errorf("Category = %s, want %s", outcome.Category, model.PainRepetitiveTask)
	}
	// 90 time-savings score maps to 270 min/week, worth 11691 becoin over
	// six months against a 650 actual cost.
	if math.Abs(outcome.ActualROI-18.0) > 1e-9 {
		t.Errorf("ActualROI = %v, want 18.0", outcome.ActualROI)
	}

	// The outcome must be persisted.
	stored, err := store.GetOutcome(ctx, proposalID)
	if err != nil {
		t.Fatalf("GetOutcome() error = %v", err)
	}
	if stored.ActualImpact != 88.75 {
		t.Errorf("stored ActualImpact = %v, want 88.75", stored.ActualImpact)
	}

	// A training example weighted by prediction surprise must exist.
	examples, err := store.ListTrainingExamples(ctx, true)
	if err != nil {
		t.Fatalf("ListTrainingExamples() error = %v", err)
	}
	if len(examples) != 1 {
		t.Fatalf("examples = %d, want 1", len(examples))
	}
	if got := examples[0].LearningWeight; math.Abs(got-0.035) > 1e-9 {
		t.Errorf("LearningWeight = %v, want 0.035", got)
	}
}

func TestCollectFeedbackMissingProposal(t *testing.T) {
	collector, store := newTestCollector(t)
	ctx := context.Background()

	outcome, err := collector.CollectFeedback(ctx, "prop-ghost", "proj-1", RawScores{
		Dimensions:   model.ImpactBreakdown{TimeSavings: 50, ProblemSolution: 50, Usability: 50, Sustainability: 50},
		Satisfaction: 60,
		ActualCost:   100,
	})
	if err != nil {
		t.Fatalf("CollectFeedback() error = %v", err)
	}

	// The outcome is still recorded, just without accuracy or an example.
	if outcome.PredictionAccuracy != 0 {
		t.Errorf("PredictionAccuracy = %v, want 0", outcome.PredictionAccuracy)
	}
	if outcome.Category != "" {
		t.Errorf("Category = %q, want empty", outcome.Category)
	}

	examples, err := store.ListTrainingExamples(ctx, true)
	if err != nil {
		t.Fatalf("ListTrainingExamples() error = %v", err)
	}
	if len(examples) != 0 {
		t.Errorf("examples = %d, want 0", len(examples))
	}
}

func TestCollectFeedbackValidation(t *testing.T) {
	collector, _ := newTestCollector(t)
	ctx := context.Background()

	if _, err := collector.CollectFeedback(ctx, "", "proj-1", RawScores{}); err == nil {
		t.Error("empty proposal id accepted")
	}
	if _, err := collector.CollectFeedback(ctx, "prop-1", "", RawScores{}); err == nil {
		t.Error("empty project id accepted")
	}
}

func TestActualROI(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		cost  float64
		want  float64
	}{
		{"full score", 100, 1000, 13.0},
		{"zero cost yields zero", 80, 0, 0},
		{"zero score yields zero", 0, 500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := actualROI(tt.score, tt.cost); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("actualROI(%v, %v) = %v, want %v", tt.score, tt.cost, got, tt.want)
			}
		})
	}
}
