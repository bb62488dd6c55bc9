// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/quillback/autoscout/internal/model"
)

// Storage defines the contract for our persistence layer. Every mutating
// ledger method is atomic: it either applies all of its row changes in one
// database transaction or none of them.
type Storage interface {
	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	ListSessions(ctx context.Context, limit int) ([]model.Session, error)
	GetProposal(ctx context.Context, id string) (*model.Proposal, error)

	// Treasury operations
	GetLedger(ctx context.Context) (*model.LedgerState, error)
	CreateLedger(ctx context.Context, state *model.LedgerState) error
	AddReservation(ctx context.Context, res *model.Reservation) error
	UpdateReservation(ctx context.Context, res *model.Reservation) error
	// CommitReservation finalizes a reservation, sets the new balance and
	// appends the expense transaction in one atomic step.
	CommitReservation(ctx context.Context, res *model.Reservation, newBalance float64, txn *model.Transaction) error
	// AddRevenue sets the new balance and appends the revenue transaction in
	// one atomic step.
	AddRevenue(ctx context.Context, newBalance float64, txn *model.Transaction) error

	// Feedback operations
	SaveOutcome(ctx context.Context, outcome *model.ActualOutcome) error
	GetOutcome(ctx context.Context, proposalID string) (*model.ActualOutcome, error)
	ListOutcomes(ctx context.Context, limit int) ([]model.ActualOutcome, error)
	SaveTrainingExample(ctx context.Context, example *model.TrainingExample) error
	ListTrainingExamples(ctx context.Context, pendingOnly bool) ([]model.TrainingExample, error)
	MarkTrainingExamplesConsumed(ctx context.Context, proposalIDs []string) error

	// Model operations
	SaveModel(ctx context.Context, m *model.TrainedModel) error
	GetLatestModel(ctx context.Context, kind model.ModelKind) (*model.TrainedModel, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations that may fail
// transiently.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
