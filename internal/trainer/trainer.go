// Package trainer iteratively adjusts named feature weights for the impact
// and cost estimators from accumulated training examples, versioning and
// persisting each trained model.
package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/quillback/autoscout/internal/model"
	"github.com/quillback/autoscout/internal/service"
)

// Defaults for the training loop.
const (
	DefaultLearningRate = 0.01
	DefaultEpochs       = 10
)

// Trainer trains the impact predictor and cost estimator. Training is a
// pure, deterministic pass over the example list in input order; there is
// no shuffling and no held-out validation set.
type Trainer struct {
	storage      service.Storage
	learningRate float64
	onEpoch      func(completed, total int)
}

// New creates a trainer with the default learning rate.
func New(storage service.Storage) *Trainer {
	return &Trainer{storage: storage, learningRate: DefaultLearningRate}
}

// SetEpochHook registers a callback invoked after each completed epoch, for
// progress reporting.
func (t *Trainer) SetEpochHook(fn func(completed, total int)) {
	t.onEpoch = fn
}

// TrainImpactPredictor fits the impact model against actual overall impact.
func (t *Trainer) TrainImpactPredictor(ctx context.Context, examples []model.TrainingExample, epochs int) (*model.TrainedModel, error) {
	return t.train(ctx, model.ModelImpactPredictor, examples, epochs, impactFeatures,
		func(ex *model.TrainingExample) float64 { return ex.Outcome.ActualImpact },
		impactAccuracy)
}

// TrainCostEstimator fits the cost model against actual delivery cost.
func (t *Trainer) TrainCostEstimator(ctx context.Context, examples []model.TrainingExample, epochs int) (*model.TrainedModel, error) {
	return t.train(ctx, model.ModelCostEstimator, examples, epochs, costFeatures,
		func(ex *model.TrainingExample) float64 { return ex.Outcome.ActualCost },
		costAccuracy)
}

type labelFunc func(*model.TrainingExample) float64

type accuracyFunc func(errs []float64, labels []float64) float64

// train runs the epoch loop: predict, compute signed error, nudge each
// weight by learningRate x error x learningWeight x featureValue.
func (t *Trainer) train(
	ctx context.Context,
	kind model.ModelKind,
	examples []model.TrainingExample,
	epochs int,
	features func(*model.TrainingExample) featureVector,
	label labelFunc,
	accuracy accuracyFunc,
) (*model.TrainedModel, error) {
	if len(examples) == 0 {
		return nil, fmt.Errorf("no training examples for %s", kind)
	}
	if epochs <= 0 {
		epochs = DefaultEpochs
	}

	prior, err := t.storage.GetLatestModel(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to load prior model: %w", err)
	}

	weights := make(map[string]float64)
	version := 1
	if prior != nil {
		for name, w := range prior.Weights {
			weights[name] = w
		}
		version = prior.Version + 1
	}

	bestAccuracy := math.Inf(-1)
	for epoch := 0; epoch < epochs; epoch++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		errs := make([]float64, 0, len(examples))
		labels := make([]float64, 0, len(examples))

		for i := range examples {
			ex := &examples[i]
			fv := features(ex)
			prediction := predict(fv, weights)
			target := label(ex)
			signedErr := target - prediction

			for name, value := range fv {
				weights[name] += t.learningRate * signedErr * ex.LearningWeight * value
			}

			errs = append(errs, signedErr)
			labels = append(labels, target)
		}

		if acc := accuracy(errs, labels); acc > bestAccuracy {
			bestAccuracy = acc
		}
		if t.onEpoch != nil {
			t.onEpoch(epoch+1, epochs)
		}
	}

	trained := &model.TrainedModel{
		Kind:            kind,
		Version:         version,
		TrainedAt:       time.Now().UTC(),
		TrainingSetSize: len(examples),
		Accuracy:        bestAccuracy,
		Weights:         weights,
		Metadata: map[string]string{
			"epochs":        fmt.Sprintf("%d", epochs),
			"learning_rate": fmt.Sprintf("%g", t.learningRate),
		},
	}
	if err := t.storage.SaveModel(ctx, trained); err != nil {
		return nil, fmt.Errorf("failed to persist model: %w", err)
	}

	slog.Info("Trained model",
		"kind", kind,
		"version", trained.Version,
		"examples", trained.TrainingSetSize,
		"epochs", epochs,
		"accuracy", trained.Accuracy)
	return trained, nil
}

// predict is the dot product of features and weights, clamped into [0,100].
func predict(fv featureVector, weights map[string]float64) float64 {
	var dot float64
	for name, value := range fv {
		dot += weights[name] * value
	}
	return math.Max(0, math.Min(dot, 100))
}

// impactAccuracy is 100 minus the mean absolute error.
func impactAccuracy(errs []float64, _ []float64) float64 {
	var sum float64
	for _, e := range errs {
		sum += math.Abs(e)
	}
	return 100 - sum/float64(len(errs))
}

// costAccuracy is 100 minus the mean absolute percentage error.
func costAccuracy(errs []float64, labels []float64) float64 {
	var sum float64
	n := 0
	for i, e := range errs {
		if labels[i] == 0 {
			continue
		}
		sum += math.Abs(e) / labels[i] * 100
		n++
	}
	if n == 0 {
		return 0
	}
	return 100 - sum/float64(n)
}
