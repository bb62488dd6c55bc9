package model

import (
	"testing"
	"time"
)

func TestMergeKey(t *testing.T) {
	tests := []struct {
		name string
		a    BehavioralPattern
		b    BehavioralPattern
		same bool
	}{
		{
			name: "case and whitespace insensitive",
			a:    BehavioralPattern{Category: PatternRepetitive, Description: "Repeated Action: deploy"},
			b:    BehavioralPattern{Category: PatternRepetitive, Description: "  repeated action: deploy "},
			same: true,
		},
		{
			name: "different categories never merge",
			a:    BehavioralPattern{Category: PatternRepetitive, Description: "deploy"},
			b:    BehavioralPattern{Category: PatternError, Description: "deploy"},
			same: false,
		},
		{
			name: "different descriptions never merge",
			a:    BehavioralPattern{Category: PatternError, Description: "timeout"},
			b:    BehavioralPattern{Category: PatternError, Description: "panic"},
			same: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.MergeKey() == tt.b.MergeKey(); got != tt.same {
				t.Errorf("MergeKey equality = %v, want %v", got, tt.same)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	p := BehavioralPattern{
		Category:    PatternRepetitive,
		Description: "repeated action: deploy",
		Frequency:   3,
		TimeCostMin: 10,
		Confidence:  0.3,
		FirstSeen:   early.Add(24 * time.Hour),
		LastSeen:    early.Add(48 * time.Hour),
		Context:     []string{"source:interactions"},
	}
	p.Merge(BehavioralPattern{
		Frequency:   4,
		TimeCostMin: 15,
		Confidence:  0.7,
		FirstSeen:   early,
		LastSeen:    late,
		Context:     []string{"source:commands"},
	})

	if p.Frequency != 7 {
		t.Errorf("Frequency = %d, want 7", p.Frequency)
	}
	if p.TimeCostMin != 25 {
		t.Errorf("TimeCostMin = %v, want 25", p.TimeCostMin)
	}
	if p.Confidence != 0.7 {
		t.Errorf("Confidence = %v, want 0.7", p.Confidence)
	}
	if !p.FirstSeen.Equal(early) {
		t.Errorf("FirstSeen = %v, want %v", p.FirstSeen, early)
	}
	if !p.LastSeen.Equal(late) {
		t.Errorf("LastSeen = %v, want %v", p.LastSeen, late)
	}
	if len(p.Context) != 2 {
		t.Errorf("Context length = %d, want 2", len(p.Context))
	}
}

func TestMergeKeepsHigherConfidence(t *testing.T) {
	p := BehavioralPattern{Confidence: 0.9}
	p.Merge(BehavioralPattern{Confidence: 0.4})

	if p.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", p.Confidence)
	}
}
