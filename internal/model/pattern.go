// Package model defines the core domain models used throughout the application.
package model

import (
	"strings"
	"time"
)

// PatternCategory classifies the kind of behavior a pattern captures.
type PatternCategory string

// Pattern category constants.
const (
	PatternRepetitive PatternCategory = "repetitive"
	PatternError      PatternCategory = "error"
	PatternBottleneck PatternCategory = "bottleneck"
	PatternWorkflow   PatternCategory = "workflow"
	PatternSearch     PatternCategory = "search"
)

// BehavioralPattern represents a weighted, deduplicated behavior observed in
// telemetry sources. Patterns are produced fresh per discovery run and are
// never persisted on their own; they live inside their session record.
type BehavioralPattern struct {
	FirstSeen   time.Time       `json:"first_seen"`
	LastSeen    time.Time       `json:"last_seen"`
	ID          string          `json:"id"`
	Category    PatternCategory `json:"category"`
	Description string          `json:"description"`
	Context     []string        `json:"context,omitempty"`
	Frequency   int             `json:"frequency"`
	TimeCostMin float64         `json:"time_cost_min"`
	Confidence  float64         `json:"confidence"`
}

// MergeKey identifies patterns that describe the same behavior. Patterns from
// different sources with the same key are merged during extraction.
func (p *BehavioralPattern) MergeKey() string {
	return string(p.Category) + "|" + strings.ToLower(strings.TrimSpace(p.Description))
}

// Merge folds another observation of the same behavior into this pattern:
// frequency and time cost sum, confidence takes the max, last-seen the latest.
func (p *BehavioralPattern) Merge(other BehavioralPattern) {
	p.Frequency += other.Frequency
	p.TimeCostMin += other.TimeCostMin
	if other.Confidence > p.Confidence {
		p.Confidence = other.Confidence
	}
	if other.LastSeen.After(p.LastSeen) {
		p.LastSeen = other.LastSeen
	}
	if !other.FirstSeen.IsZero() && (p.FirstSeen.IsZero() || other.FirstSeen.Before(p.FirstSeen)) {
		p.FirstSeen = other.FirstSeen
	}
	p.Context = append(p.Context, other.Context...)
}
