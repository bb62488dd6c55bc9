// Package extractor reads behavioral telemetry sources and emits weighted,
// deduplicated behavioral patterns.
package extractor

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/quillback/autoscout/internal/model"
)

// Source reads one telemetry log and emits raw patterns for a time window.
type Source interface {
	Name() string
	Read(ctx context.Context, since time.Time) ([]model.BehavioralPattern, error)
}

// Analyzer pools patterns from all configured sources, merges duplicates and
// filters by confidence.
type Analyzer struct {
	sources []Source
}

// NewAnalyzer creates an analyzer over the given sources.
func NewAnalyzer(sources ...Source) *Analyzer {
	return &Analyzer{sources: sources}
}

// NewDirAnalyzer creates an analyzer over the well-known source files in a
// telemetry directory. Files that do not exist simply contribute nothing.
func NewDirAnalyzer(dir string) *Analyzer {
	return NewAnalyzer(
		NewInteractionSource(dir),
		NewCommandSource(dir),
		NewEditSource(dir),
		NewCoordinationSource(dir),
	)
}

// Analyze reads every source for the given window, merges patterns by
// (category, description) and returns those at or above minConfidence.
// A missing or unreadable source yields zero patterns rather than failing
// the whole call; first runs against an empty telemetry directory are
// silent.
func (a *Analyzer) Analyze(ctx context.Context, window time.Duration, minConfidence float64) ([]model.BehavioralPattern, error) {
	since := time.Now().Add(-window)

	var pooled []model.BehavioralPattern
	for _, src := range a.sources {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		patterns, err := src.Read(ctx, since)
		if err != nil {
			slog.Debug("Telemetry source unavailable, skipping",
				"source", src.Name(),
				"error", err)
			continue
		}
		pooled = append(pooled, patterns...)
	}

	merged := mergePatterns(pooled)

	filtered := make([]model.BehavioralPattern, 0, len(merged))
	for _, p := range merged {
		if p.Confidence >= minConfidence {
			filtered = append(filtered, p)
		}
	}

	slog.Info("Extracted behavioral patterns",
		"pooled", len(pooled),
		"merged", len(merged),
		"returned", len(filtered),
		"min_confidence", minConfidence)
	return filtered, nil
}

// mergePatterns folds patterns with the same merge key together. Output is
// sorted by merge key so identical inputs always produce identical output.
func mergePatterns(patterns []model.BehavioralPattern) []model.BehavioralPattern {
	byKey := make(map[string]*model.BehavioralPattern, len(patterns))
	for _, p := range patterns {
		key := p.MergeKey()
		if existing, ok := byKey[key]; ok {
			existing.Merge(p)
			continue
		}
		clone := p
		clone.ID = patternID(key)
		byKey[key] = &clone
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	merged := make([]model.BehavioralPattern, 0, len(keys))
	for _, key := range keys {
		merged = append(merged, *byKey[key])
	}
	return merged
}

// patternID derives a stable identity from the merge key.
func patternID(key string) string {
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("pat-%x", hash[:8])
}
