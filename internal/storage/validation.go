package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quillback/autoscout/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidSession     = errors.New("invalid session")
	ErrInvalidReservation = errors.New("invalid reservation")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidOutcome     = errors.New("invalid outcome")
	ErrInvalidModel       = errors.New("invalid model")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateSession validates a session before persistence.
func validateSession(session *model.Session) error {
	if session == nil {
		return fmt.Errorf("%w: session", ErrNilParameter)
	}
	if session.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidSession)
	}
	if session.StartedAt.IsZero() {
		return fmt.Errorf("%w: missing start time", ErrInvalidSession)
	}
	if session.Status == "" {
		return fmt.Errorf("%w: missing status", ErrInvalidSession)
	}
	return nil
}

// validateReservation validates a reservation before persistence.
func validateReservation(res *model.Reservation) error {
	if res == nil {
		return fmt.Errorf("%w: reservation", ErrNilParameter)
	}
	if res.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidReservation)
	}
	if res.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidReservation)
	}
	switch res.Status {
	case model.ReservationReserved, model.ReservationCommitted, model.ReservationCancelled:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidReservation, res.Status)
	}
	return nil
}

// validateLedgerTransaction validates a ledger entry before persistence.
func validateLedgerTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	switch txn.Kind {
	case model.TransactionExpense, model.TransactionRevenue:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidTransaction, txn.Kind)
	}
	return nil
}

// validateOutcome validates an outcome before persistence.
func validateOutcome(outcome *model.ActualOutcome) error {
	if outcome == nil {
		return fmt.Errorf("%w: outcome", ErrNilParameter)
	}
	if outcome.ProposalID == "" {
		return fmt.Errorf("%w: missing proposal ID", ErrInvalidOutcome)
	}
	if outcome.ProjectID == "" {
		return fmt.Errorf("%w: missing project ID", ErrInvalidOutcome)
	}
	return nil
}

// validateModel validates a trained model before persistence.
func validateModel(m *model.TrainedModel) error {
	if m == nil {
		return fmt.Errorf("%w: model", ErrNilParameter)
	}
	switch m.Kind {
	case model.ModelImpactPredictor, model.ModelCostEstimator:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidModel, m.Kind)
	}
	if m.Version <= 0 {
		return fmt.Errorf("%w: version must be positive", ErrInvalidModel)
	}
	if m.Weights == nil {
		return fmt.Errorf("%w: missing weights", ErrInvalidModel)
	}
	return nil
}
