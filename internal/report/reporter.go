// Package report aggregates persisted outcomes into read-only trend and
// insight summaries. It never mutates state and duplicates no business rule.
package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/quillback/autoscout/internal/model"
	"github.com/quillback/autoscout/internal/service"
)

// CategorySummary aggregates outcomes for one pain category.
type CategorySummary struct {
	Category         model.PainCategory
	Projects         int
	MeanImpact       float64
	MeanSatisfaction float64
	MeanAccuracy     float64
}

// Report is a snapshot of delivery performance across all recorded outcomes.
type Report struct {
	Categories       []CategorySummary
	Insights         []string
	TotalProjects    int
	MeanAccuracy     float64
	MeanSatisfaction float64
	AccuracyTrend    float64
	RecommendRate    float64
}

// Reporter aggregates persisted outcomes.
type Reporter struct {
	storage service.Storage
}

// NewReporter creates a reporter backed by the given storage.
func NewReporter(storage service.Storage) *Reporter {
	return &Reporter{storage: storage}
}

// Generate builds the full analytics report.
func (r *Reporter) Generate(ctx context.Context) (*Report, error) {
	outcomes, err := r.storage.ListOutcomes(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}

	report := &Report{TotalProjects: len(outcomes)}
	if len(outcomes) == 0 {
		report.Insights = []string{"no delivered projects recorded yet"}
		return report, nil
	}

	var accuracy, satisfaction float64
	recommends := 0
	type acc struct {
		impact, satisfaction, accuracy float64
		n                              int
	}
	byCategory := make(map[model.PainCategory]*acc)

	for i := range outcomes {
		o := &outcomes[i]
		accuracy += o.PredictionAccuracy
		satisfaction += o.UserSatisfaction
		if o.WouldRecommend {
			recommends++
		}
		if o.Category == "" {
			continue
		}
		a, ok := byCategory[o.Category]
		if !ok {
			a = &acc{}
			byCategory[o.Category] = a
		}
		a.impact += o.ActualImpact
		a.satisfaction += o.UserSatisfaction
		a.accuracy += o.PredictionAccuracy
		a.n++
	}

	n := float64(len(outcomes))
	report.MeanAccuracy = accuracy / n
	report.MeanSatisfaction = satisfaction / n
	report.RecommendRate = float64(recommends) / n
	report.AccuracyTrend = trend(outcomes)

	for category, a := range byCategory {
		report.Categories = append(report.Categories, CategorySummary{
			Category:         category,
			Projects:         a.n,
			MeanImpact:       a.impact / float64(a.n),
			MeanSatisfaction: a.satisfaction / float64(a.n),
			MeanAccuracy:     a.accuracy / float64(a.n),
		})
	}
	sort.Slice(report.Categories, func(i, j int) bool {
		return report.Categories[i].Category < report.Categories[j].Category
	})

	report.Insights = insights(report)
	return report, nil
}

// trend compares newer outcomes against older ones; storage returns newest
// first.
func trend(outcomes []model.ActualOutcome) float64 {
	if len(outcomes) < 2 {
		return 0
	}
	mid := len(outcomes) / 2
	return mean(outcomes[:mid]) - mean(outcomes[mid:])
}

func mean(outcomes []model.ActualOutcome) float64 {
	var sum float64
	for i := range outcomes {
		sum += outcomes[i].PredictionAccuracy
	}
	return sum / float64(len(outcomes))
}

func insights(r *Report) []string {
	var out []string
	if r.AccuracyTrend > 0 {
		out = append(out, fmt.Sprintf("prediction accuracy improving (%+.1f points)", r.AccuracyTrend))
	} else if r.AccuracyTrend < 0 {
		out = append(out, fmt.Sprintf("prediction accuracy declining (%+.1f points)", r.AccuracyTrend))
	}
	for _, c := range r.Categories {
		if c.MeanSatisfaction < 60 {
			out = append(out, fmt.Sprintf("%s projects are underperforming on satisfaction (%.1f)", c.Category, c.MeanSatisfaction))
		}
	}
	if r.RecommendRate >= 0.8 {
		out = append(out, fmt.Sprintf("%.0f%% of delivered projects would be recommended", r.RecommendRate*100))
	}
	if len(out) == 0 {
		out = append(out, "delivery performance is steady")
	}
	return out
}
