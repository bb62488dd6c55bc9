package trainer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/quillback/autoscout/internal/model"
	"github.com/quillback/autoscout/internal/storage"
)

func newTestTrainer(t *testing.T) (*Trainer, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return New(store), store
}

func testExamples(n int) []model.TrainingExample {
	examples := make([]model.TrainingExample, n)
	for i := range examples {
		examples[i] = model.TrainingExample{
			Proposal: model.Proposal{
				ID: "prop-1",
				PainPoint: model.PainPoint{
					Severity:            model.SeverityHigh,
					TimeCostMinPerWeek:  120,
					AutomationPotential: 0.9,
				},
				Cost:              678,
				Team:              []string{"automation engineer", "qa engineer"},
				RiskLevel:         model.RiskMedium,
				SavingsMinPerWeek: 120,
				AutomationLevel:   0.9,
			},
			Prediction: model.ImpactPrediction{
				OverallImpact: 86,
				ExpectedROI:   6.6,
				Confidence:    0.77,
			},
			Outcome: model.ActualOutcome{
				ActualImpact: 80,
				ActualCost:   650,
			},
			LearningWeight: 1,
			CreatedAt:      time.Now().UTC(),
		}
	}
	return examples
}

func TestTrainImpactPredictor(t *testing.T) {
	tr, store := newTestTrainer(t)
	ctx := context.Background()

	trained, err := tr.TrainImpactPredictor(ctx, testExamples(10), 20)
	if err != nil {
		t.Fatalf("TrainImpactPredictor() error = %v", err)
	}

	if trained.Kind != model.ModelImpactPredictor {
		t.Errorf("Kind = %s, want %s", trained.Kind, model.ModelImpactPredictor)
	}
	if trained.Version != 1 {
		t.Errorf("Version = %d, want 1", trained.Version)
	}
	if trained.TrainingSetSize != 10 {
		t.Errorf("TrainingSetSize = %d, want 10", trained.TrainingSetSize)
	}
	if len(trained.Weights) == 0 {
		t.Error("Weights are empty")
	}
	if trained.Metadata["epochs"] != "20" {
		t.Errorf("Metadata epochs = %q, want 20", trained.Metadata["epochs"])
	}

	// The persisted copy is the new latest model.
	latest, err := store.GetLatestModel(ctx, model.ModelImpactPredictor)
	if err != nil {
		t.Fatalf("GetLatestModel() error = %v", err)
	}
	if latest == nil || latest.Version != 1 {
		t.Fatalf("latest = %+v, want version 1", latest)
	}
}

func TestTrainResumesFromPriorWeights(t *testing.T) {
	tr, _ := newTestTrainer(t)
	ctx := context.Background()
	examples := testExamples(10)

	first, err := tr.TrainImpactPredictor(ctx, examples, 10)
	if err != nil {
		t.Fatalf("first training error = %v", err)
	}
	second, err := tr.TrainImpactPredictor(ctx, examples, 10)
	if err != nil {
		t.Fatalf("second training error = %v", err)
	}

	if second.Version != first.Version+1 {
		t.Errorf("Version = %d, want %d", second.Version, first.Version+1)
	}
	// Continuing from the first run's weights on the same data can only
	// move the fit toward the label, never away from it.
	if second.Accuracy < first.Accuracy {
		t.Errorf("Accuracy regressed: %v -> %v", first.Accuracy, second.Accuracy)
	}
}

func TestTrainingReducesError(t *testing.T) {
	tr, _ := newTestTrainer(t)
	ctx := context.Background()
	examples := testExamples(10)

	trained, err := tr.TrainImpactPredictor(ctx, examples, 50)
	if err != nil {
		t.Fatalf("TrainImpactPredictor() error = %v", err)
	}

	// From zero weights the first-epoch error is the full 80-point label.
	// Fifty epochs of updates must close most of that gap.
	if trained.Accuracy <= 20 {
		t.Errorf("Accuracy = %v, want substantially above the untrained baseline", trained.Accuracy)
	}

	prediction := predict(impactFeatures(&examples[0]), trained.Weights)
	if prediction <= 0 || prediction > 100 {
		t.Errorf("prediction = %v, want in (0, 100]", prediction)
	}
}

func TestTrainCostEstimator(t *testing.T) {
	tr, _ := newTestTrainer(t)
	ctx := context.Background()

	trained, err := tr.TrainCostEstimator(ctx, testExamples(10), 10)
	if err != nil {
		t.Fatalf("TrainCostEstimator() error = %v", err)
	}
	if trained.Kind != model.ModelCostEstimator {
		t.Errorf("Kind = %s, want %s", trained.Kind, model.ModelCostEstimator)
	}
	// Cost features exclude the forecaster's own prediction.
	if _, ok := trained.Weights["pred_impact"]; ok {
		t.Error("cost estimator learned a prediction feature")
	}
}

func TestTrainEmptyExamples(t *testing.T) {
	tr, _ := newTestTrainer(t)

	if _, err := tr.TrainImpactPredictor(context.Background(), nil, 10); err == nil {
		t.Error("training on no examples succeeded")
	}
}

func TestPredictClamps(t *testing.T) {
	fv := featureVector{"a": 1, "b": 1}

	if got := predict(fv, map[string]float64{"a": 500, "b": 500}); got != 100 {
		t.Errorf("predict() = %v, want clamp at 100", got)
	}
	if got := predict(fv, map[string]float64{"a": -500, "b": -500}); got != 0 {
		t.Errorf("predict() = %v, want clamp at 0", got)
	}
}

func TestEpochHook(t *testing.T) {
	tr, _ := newTestTrainer(t)

	var calls int
	var lastTotal int
	tr.SetEpochHook(func(completed, total int) {
		calls++
		lastTotal = total
	})

	if _, err := tr.TrainImpactPredictor(context.Background(), testExamples(3), 5); err != nil {
		t.Fatalf("TrainImpactPredictor() error = %v", err)
	}
	if calls != 5 || lastTotal != 5 {
		t.Errorf("hook calls = %d (total %d), want 5 calls with total 5", calls, lastTotal)
	}
}

func TestAccuracyFunctions(t *testing.T) {
	if got := impactAccuracy([]float64{10, -10}, nil); got != 90 {
		t.Errorf("impactAccuracy = %v, want 90", got)
	}
	// MAPE over labels 100 and 200 with errors 10 and 40.
	if got := costAccuracy([]float64{10, -40}, []float64{100, 200}); got != 85 {
		t.Errorf("costAccuracy = %v, want 85", got)
	}
}
