package model

import "time"

// SessionStatus tracks a discovery session through its stages.
type SessionStatus string

// Session status constants. A session only reaches completed when every stage
// succeeded; aborted sessions are never persisted.
const (
	SessionAnalyzing SessionStatus = "analyzing"
	SessionProposing SessionStatus = "proposing"
	SessionCompleted SessionStatus = "completed"
)

// Session is the persisted record of one discovery run: the patterns it
// extracted, the pain points it classified, and the proposals it produced
// (each with its attached prediction).
type Session struct {
	StartedAt   time.Time           `json:"started_at"`
	CompletedAt time.Time           `json:"completed_at"`
	ID          string              `json:"id"`
	Status      SessionStatus       `json:"status"`
	Patterns    []BehavioralPattern `json:"patterns"`
	PainPoints  []PainPoint         `json:"pain_points"`
	Proposals   []Proposal          `json:"proposals"`
}
