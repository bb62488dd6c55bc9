// Package improve decides when retraining or algorithm adjustment is
// warranted and executes those improvement actions.
package improve

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quillback/autoscout/internal/model"
	"github.com/quillback/autoscout/internal/service"
	"github.com/quillback/autoscout/internal/trainer"
)

// ActionKind names an improvement action.
type ActionKind string

// Improvement action kinds.
const (
	ActionRetrain          ActionKind = "retrain"
	ActionScheduledRetrain ActionKind = "scheduled_retrain"
	ActionAdjustAlgorithm  ActionKind = "adjust_algorithm"
	ActionUpdateWeights    ActionKind = "update_weights"
)

// Action is one improvement the scheduler has decided to take.
type Action struct {
	Kind   ActionKind
	Reason string
}

// Config holds the scheduler's thresholds.
type Config struct {
	// RetrainThreshold is the pending training-example count that triggers
	// a retrain.
	RetrainThreshold int
	// RetrainInterval forces a scheduled retrain after this much time since
	// the last training run.
	RetrainInterval time.Duration
	// UnderperformScore marks a pain category as underperforming when its
	// mean satisfaction or impact falls below it.
	UnderperformScore float64
	// AccuracyFloor triggers a weight update when mean prediction accuracy
	// drops below it.
	AccuracyFloor float64
	// MinProjects is how many outcomes must exist before accuracy is judged.
	MinProjects int
	// RecentOutcomes bounds how many outcomes feed the checks.
	RecentOutcomes int
	// Epochs per triggered training run.
	Epochs int
}

// DefaultConfig returns the default scheduler thresholds.
func DefaultConfig() Config {
	return Config{
		RetrainThreshold:  10,
		RetrainInterval:   168 * time.Hour,
		UnderperformScore: 60,
		AccuracyFloor:     70,
		MinProjects:       5,
		RecentOutcomes:    50,
		Epochs:            trainer.DefaultEpochs,
	}
}

// Scheduler reads accumulated feedback and invokes the trainer when the
// thresholds say so.
type Scheduler struct {
	storage service.Storage
	trainer *trainer.Trainer
	config  Config
}

// NewScheduler creates a scheduler with the given dependencies.
func NewScheduler(storage service.Storage, tr *trainer.Trainer, config Config) *Scheduler {
	return &Scheduler{storage: storage, trainer: tr, config: config}
}

// CheckAndImprove inspects thresholds and data volume and returns the
// improvement actions currently due. It performs no mutations itself.
func (s *Scheduler) CheckAndImprove(ctx context.Context) ([]Action, error) {
	var actions []Action

	pending, err := s.storage.ListTrainingExamples(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending examples: %w", err)
	}
	if len(pending) >= s.config.RetrainThreshold {
		actions = append(actions, Action{
			Kind:   ActionRetrain,
			Reason: fmt.Sprintf("%d pending training examples (threshold %d)", len(pending), s.config.RetrainThreshold),
		})
	}

	lastTrained, err := s.lastTrainingTime(ctx)
	if err != nil {
		return nil, err
	}
	if !lastTrained.IsZero() && time.Since(lastTrained) >= s.config.RetrainInterval {
		actions = append(actions, Action{
			Kind:   ActionScheduledRetrain,
			Reason: fmt.Sprintf("last training run %s ago (interval %s)", time.Since(lastTrained).Round(time.Hour), s.config.RetrainInterval),
		})
	}

	outcomes, err := s.storage.ListOutcomes(ctx, s.config.RecentOutcomes)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}

	for category, perf := range categoryPerformance(outcomes) {
		if perf.meanSatisfaction < s.config.UnderperformScore || perf.meanImpact < s.config.UnderperformScore {
			actions = append(actions, Action{
				Kind: ActionAdjustAlgorithm,
				Reason: fmt.Sprintf("category %s underperforming (satisfaction %.1f, impact %.1f)",
					category, perf.meanSatisfaction, perf.meanImpact),
			})
		}
	}

	if len(outcomes) > s.config.MinProjects {
		if acc := meanAccuracy(outcomes); acc < s.config.AccuracyFloor {
			actions = append(actions, Action{
				Kind:   ActionUpdateWeights,
				Reason: fmt.Sprintf("mean prediction accuracy %.1f%% below %.0f%%", acc, s.config.AccuracyFloor),
			})
		}
	}

	return actions, nil
}

// ExecuteImprovements runs each action in turn. Per-action failures are
// logged and skipped, never propagated; partial success is the normal mode.
func (s *Scheduler) ExecuteImprovements(ctx context.Context, actions []Action) {
	for _, action := range actions {
		if err := s.execute(ctx, action); err != nil {
			slog.Error("Improvement action failed, continuing",
				"action", action.Kind,
				"reason", action.Reason,
				"error", err)
			continue
		}
		slog.Info("Improvement action completed", "action", action.Kind)
	}
}

func (s *Scheduler) execute(ctx context.Context, action Action) error {
	switch action.Kind {
	case ActionRetrain, ActionScheduledRetrain:
		return s.retrain(ctx, true)
	case ActionUpdateWeights:
		// Re-fit against the full example history, not just pending ones.
		return s.retrain(ctx, false)
	case ActionAdjustAlgorithm:
		// Algorithm adjustment is advisory: surface the signal for an
		// operator; classification rules are code, not weights.
		slog.Warn("Algorithm adjustment recommended", "reason", action.Reason)
		return nil
	default:
		return fmt.Errorf("unknown improvement action %q", action.Kind)
	}
}

// retrain trains both estimators. With pendingOnly, only the not-yet-consumed
// examples are used and then marked consumed.
func (s *Scheduler) retrain(ctx context.Context, pendingOnly bool) error {
	examples, err := s.storage.ListTrainingExamples(ctx, pendingOnly)
	if err != nil {
		return fmt.Errorf("failed to list training examples: %w", err)
	}
	if len(examples) == 0 {
		return fmt.Errorf("no training examples available")
	}

	if _, err := s.trainer.TrainImpactPredictor(ctx, examples, s.config.Epochs); err != nil {
		return fmt.Errorf("impact predictor training failed: %w", err)
	}
	if _, err := s.trainer.TrainCostEstimator(ctx, examples, s.config.Epochs); err != nil {
		return fmt.Errorf("cost estimator training failed: %w", err)
	}

	if pendingOnly {
		ids := make([]string, 0, len(examples))
		for i := range examples {
			ids = append(ids, examples[i].Proposal.ID)
		}
		if err := s.storage.MarkTrainingExamplesConsumed(ctx, ids); err != nil {
			return fmt.Errorf("failed to mark examples consumed: %w", err)
		}
	}
	return nil
}

// CycleReport summarizes one optimization cycle.
type CycleReport struct {
	Actions        []Action
	AccuracyBefore float64
	AccuracyAfter  float64
	Delta          float64
}

// RunOptimizationCycle snapshots model accuracy, executes all currently-due
// actions and reports the accuracy delta.
func (s *Scheduler) RunOptimizationCycle(ctx context.Context) (*CycleReport, error) {
	before, err := s.modelAccuracy(ctx)
	if err != nil {
		return nil, err
	}

	actions, err := s.CheckAndImprove(ctx)
	if err != nil {
		return nil, err
	}
	s.ExecuteImprovements(ctx, actions)

	after, err := s.modelAccuracy(ctx)
	if err != nil {
		return nil, err
	}

	return &CycleReport{
		Actions:        actions,
		AccuracyBefore: before,
		AccuracyAfter:  after,
		Delta:          after - before,
	}, nil
}

// Status is the scheduler's current read on system health.
type Status struct {
	MeanAccuracy     float64
	MeanSatisfaction float64
	ImprovementTrend float64
	PendingActions   []Action
	TotalProjects    int
	IsOptimal        bool
}

// GetOptimizationStatus reports whether the estimators are performing well
// enough that no intervention is due.
func (s *Scheduler) GetOptimizationStatus(ctx context.Context) (*Status, error) {
	outcomes, err := s.storage.ListOutcomes(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}

	pending, err := s.CheckAndImprove(ctx)
	if err != nil {
		return nil, err
	}

	status := &Status{
		MeanAccuracy:     meanAccuracy(outcomes),
		MeanSatisfaction: meanSatisfaction(outcomes),
		ImprovementTrend: accuracyTrend(outcomes),
		PendingActions:   pending,
		TotalProjects:    len(outcomes),
	}
	status.IsOptimal = status.MeanAccuracy > 80 &&
		status.MeanSatisfaction > 85 &&
		status.ImprovementTrend >= 0 &&
		len(pending) == 0
	return status, nil
}

// lastTrainingTime is the most recent trained-at across both model kinds.
func (s *Scheduler) lastTrainingTime(ctx context.Context) (time.Time, error) {
	var latest time.Time
	for _, kind := range []model.ModelKind{model.ModelImpactPredictor, model.ModelCostEstimator} {
		m, err := s.storage.GetLatestModel(ctx, kind)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to load latest %s: %w", kind, err)
		}
		if m != nil && m.TrainedAt.After(latest) {
			latest = m.TrainedAt
		}
	}
	return latest, nil
}

// modelAccuracy is the latest impact predictor's recorded accuracy.
func (s *Scheduler) modelAccuracy(ctx context.Context) (float64, error) {
	m, err := s.storage.GetLatestModel(ctx, model.ModelImpactPredictor)
	if err != nil {
		return 0, fmt.Errorf("failed to load impact predictor: %w", err)
	}
	if m == nil {
		return 0, nil
	}
	return m.Accuracy, nil
}

type performance struct {
	meanSatisfaction float64
	meanImpact       float64
}

// categoryPerformance averages satisfaction and impact per pain category.
// Outcomes whose originating proposal was never located carry no category
// and are skipped.
func categoryPerformance(outcomes []model.ActualOutcome) map[model.PainCategory]performance {
	type acc struct {
		satisfaction float64
		impact       float64
		n            int
	}
	byCategory := make(map[model.PainCategory]*acc)
	for i := range outcomes {
		category := outcomes[i].Category
		if category == "" {
			continue
		}
		a, ok := byCategory[category]
		if !ok {
			a = &acc{}
			byCategory[category] = a
		}
		a.satisfaction += outcomes[i].UserSatisfaction
		a.impact += outcomes[i].ActualImpact
		a.n++
	}

	result := make(map[model.PainCategory]performance, len(byCategory))
	for category, a := range byCategory {
		result[category] = performance{
			meanSatisfaction: a.satisfaction / float64(a.n),
			meanImpact:       a.impact / float64(a.n),
		}
	}
	return result
}

func meanAccuracy(outcomes []model.ActualOutcome) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	var sum float64
	for i := range outcomes {
		sum += outcomes[i].PredictionAccuracy
	}
	return sum / float64(len(outcomes))
}

func meanSatisfaction(outcomes []model.ActualOutcome) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	var sum float64
	for i := range outcomes {
		sum += outcomes[i].UserSatisfaction
	}
	return sum / float64(len(outcomes))
}

// accuracyTrend compares the newer half of outcomes against the older half.
// Outcomes arrive newest first from storage.
func accuracyTrend(outcomes []model.ActualOutcome) float64 {
	if len(outcomes) < 2 {
		return 0
	}
	mid := len(outcomes) / 2
	newer := meanAccuracy(outcomes[:mid])
	older := meanAccuracy(outcomes[mid:])
	return newer - older
}
