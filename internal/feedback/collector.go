// Package feedback ingests real post-delivery outcomes, computes prediction
// error and derives weighted training examples for the trainer.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/quillback/autoscout/internal/common"
	"github.com/quillback/autoscout/internal/model"
	"github.com/quillback/autoscout/internal/service"
)

// ROI conversion constants matching the forecaster's monetary model. The
// 0-100 time-savings score maps onto an assumed 0-300 minutes/week range.
const (
	maxWeeklyMinutes = 300
	weeksPerMonth    = 4.33
	becoinPerHour    = 100
	horizonMonths    = 6

	// surpriseScale divides the absolute prediction error to produce the
	// 0-1 learning weight; a miss of 50 points or more weighs fully.
	surpriseScale = 50
)

// RawScores carries the realized measurements for a delivered project.
type RawScores struct {
	Comments       string
	Dimensions     model.ImpactBreakdown
	Satisfaction   float64
	ActualCost     float64
	ActualTimeline string
	WouldRecommend bool
}

// Collector records actual outcomes and derives training examples.
type Collector struct {
	storage service.Storage
}

// NewCollector creates a feedback collector backed by the given storage.
func NewCollector(storage service.Storage) *Collector {
	return &Collector{storage: storage}
}

// CollectFeedback records the actual outcome for a delivered proposal. When
// the originating proposal and its prediction can both be located, a
// training example weighted by prediction surprise is persisted as well; a
// missing proposal is a soft failure and the outcome is still recorded.
func (c *Collector) CollectFeedback(ctx context.Context, proposalID, projectID string, scores RawScores) (*model.ActualOutcome, error) {
	if proposalID == "" {
		return nil, fmt.Errorf("%w: proposal id", common.ErrMissingConfig)
	}
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id", common.ErrMissingConfig)
	}

	dims := scores.Dimensions
	actualImpact := roundTo((dims.TimeSavings+dims.ProblemSolution+dims.Usability+dims.Sustainability)/4, 2)

	proposal, err := c.storage.GetProposal(ctx, proposalID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up proposal: %w", err)
	}
	if proposal == nil {
		slog.Warn("Originating proposal not found, recording outcome without training example",
			"proposal_id", proposalID)
	}

	outcome := &model.ActualOutcome{
		ProposalID:       proposalID,
		ProjectID:        projectID,
		Dimensions:       dims,
		ActualImpact:     actualImpact,
		UserSatisfaction: scores.Satisfaction,
		Comments:         scores.Comments,
		WouldRecommend:   scores.WouldRecommend,
		ActualCost:       scores.ActualCost,
		ActualTimeline:   scores.ActualTimeline,
		ActualROI:        actualROI(dims.TimeSavings, scores.ActualCost),
		RecordedAt:       time.Now().UTC(),
	}

	if proposal != nil {
		outcome.Category = proposal.PainPoint.Category
		if proposal.Prediction != nil {
			predicted := float64(proposal.Prediction.OverallImpact)
			outcome.PredictionAccuracy = math.Max(0, 100-math.Abs(predicted-actualImpact))
		}
	}

	if err := c.storage.SaveOutcome(ctx, outcome); err != nil {
		return nil, fmt.Errorf("failed to persist outcome: %w", err)
	}

	if proposal != nil && proposal.Prediction != nil {
		example := deriveExample(proposal, outcome)
		if err := c.storage.SaveTrainingExample(ctx, example); err != nil {
			return nil, fmt.Errorf("failed to persist training example: %w", err)
		}
		slog.Info("Recorded outcome with training example",
			"proposal_id", proposalID,
			"prediction_accuracy", outcome.PredictionAccuracy,
			"learning_weight", example.LearningWeight)
	} else {
		slog.Info("Recorded outcome", "proposal_id", proposalID)
	}

	return outcome, nil
}

// deriveExample weights the example by prediction surprise: the further the
// prediction missed, the more the trainer should learn from it.
func deriveExample(proposal *model.Proposal, outcome *model.ActualOutcome) *model.TrainingExample {
	predicted := float64(proposal.Prediction.OverallImpact)
	weight := math.Min(1, math.Abs(predicted-outcome.ActualImpact)/surpriseScale)

	return &model.TrainingExample{
		Proposal:       *proposal,
		Prediction:     *proposal.Prediction,
		Outcome:        *outcome,
		LearningWeight: weight,
		CreatedAt:      time.Now().UTC(),
	}
}

// actualROI converts the realized time-savings score into weekly minutes,
// then into a six-month monetary value divided by actual cost.
func actualROI(timeSavingsScore, actualCost float64) float64 {
	if actualCost <= 0 {
		return 0
	}
	weeklyMinutes := timeSavingsScore / 100 * maxWeeklyMinutes
	monthlyHours := weeklyMinutes * weeksPerMonth / 60
	sixMonthValue := monthlyHours * becoinPerHour * horizonMonths
	return roundTo(sixMonthValue/actualCost, 1)
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
