// Package treasury implements the virtual treasury ledger: balance,
// reservations and transactions, with conservation invariants enforced on
// every mutation.
package treasury

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quillback/autoscout/internal/common"
	"github.com/quillback/autoscout/internal/model"
	"github.com/quillback/autoscout/internal/service"
)

// Bootstrap defaults applied on first access with no existing ledger.
const (
	DefaultStartingCapital = 100_000
	DefaultBurnRate        = 250 // becoin per hour

	// allocationCap limits a single reservation to this share of available
	// balance.
	allocationCap = 0.2
)

// Ledger owns the monetary state. All mutations are serialized behind a
// single mutex and applied atomically by the storage layer, so two
// concurrent reservations can never both pass the allocation check against
// the same stale balance.
type Ledger struct {
	storage service.Storage
	mu      sync.Mutex
}

// NewLedger creates a ledger backed by the given storage.
func NewLedger(storage service.Storage) *Ledger {
	return &Ledger{storage: storage}
}

// GetSnapshot returns the current derived view of the treasury,
// bootstrapping defaults on first access.
func (l *Ledger) GetSnapshot(ctx context.Context) (model.TreasurySnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.loadOrBootstrap(ctx)
	if err != nil {
		return model.TreasurySnapshot{}, err
	}
	return state.Snapshot(), nil
}

// ReserveBudget earmarks part of the available balance. It rejects
// non-positive amounts, amounts exceeding available balance, and amounts
// exceeding 20% of available balance.
func (l *Ledger) ReserveBudget(ctx context.Context, amount float64, reason string) (*model.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount <= 0 {
		return nil, fmt.Errorf("reserve %.2f: %w", amount, common.ErrInvalidAmount)
	}

	state, err := l.loadOrBootstrap(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := state.Snapshot()
	if amount > snapshot.Available {
		return nil, fmt.Errorf("reserve %.2f with %.2f available: %w",
			amount, snapshot.Available, common.ErrInsufficientFunds)
	}
	if amount > snapshot.Available*allocationCap {
		return nil, fmt.Errorf("reserve %.2f exceeds %.2f (20%% of %.2f available): %w",
			amount, snapshot.Available*allocationCap, snapshot.Available, common.ErrAllocationCap)
	}

	res := &model.Reservation{
		ID:        uuid.NewString(),
		Amount:    amount,
		Reason:    reason,
		Status:    model.ReservationReserved,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.storage.AddReservation(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to persist reservation: %w", err)
	}

	slog.Info("Reserved budget",
		"reservation_id", res.ID,
		"amount", amount,
		"reason", reason,
		"available_after", snapshot.Available-amount)
	return res, nil
}

// CommitReservation finalizes a reservation into an actual balance deduction
// and an expense transaction. actualCost <= 0 means "use the reserved
// amount".
func (l *Ledger) CommitReservation(ctx context.Context, id string, actualCost float64) (model.TreasurySnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.loadOrBootstrap(ctx)
	if err != nil {
		return model.TreasurySnapshot{}, err
	}

	res, err := findReservation(state, id)
	if err != nil {
		return model.TreasurySnapshot{}, err
	}

	if actualCost <= 0 {
		actualCost = res.Amount
	}
	if actualCost > state.Balance {
		return model.TreasurySnapshot{}, fmt.Errorf("commit %.2f against balance %.2f: %w",
			actualCost, state.Balance, common.ErrInsufficientFunds)
	}

	now := time.Now().UTC()
	res.Status = model.ReservationCommitted
	res.ActualCost = actualCost
	res.CommittedAt = &now

	txn := &model.Transaction{
		ID:            uuid.NewString(),
		Kind:          model.TransactionExpense,
		Amount:        actualCost,
		Description:   res.Reason,
		ReservationID: res.ID,
		Timestamp:     now,
	}

	newBalance := state.Balance - actualCost
	if err := l.storage.CommitReservation(ctx, res, newBalance, txn); err != nil {
		return model.TreasurySnapshot{}, fmt.Errorf("failed to commit reservation: %w", err)
	}

	state.Balance = newBalance
	snapshot := state.Snapshot()

	slog.Info("Committed reservation",
		"reservation_id", res.ID,
		"actual_cost", actualCost,
		"balance", snapshot.Balance,
		"runway_hours", snapshot.RunwayHours)
	return snapshot, nil
}

// CancelReservation releases a reservation without spending. No balance
// change.
func (l *Ledger) CancelReservation(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.loadOrBootstrap(ctx)
	if err != nil {
		return err
	}

	res, err := findReservation(state, id)
	if err != nil {
		return err
	}

	res.Status = model.ReservationCancelled
	res.ActualCost = 0
	if err := l.storage.UpdateReservation(ctx, res); err != nil {
		return fmt.Errorf("failed to cancel reservation: %w", err)
	}

	slog.Info("Cancelled reservation", "reservation_id", res.ID, "amount", res.Amount)
	return nil
}

// RecordRevenue adds income to the balance and appends a revenue transaction.
func (l *Ledger) RecordRevenue(ctx context.Context, amount float64, description string) (model.TreasurySnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount <= 0 {
		return model.TreasurySnapshot{}, fmt.Errorf("revenue %.2f: %w", amount, common.ErrInvalidAmount)
	}

	state, err := l.loadOrBootstrap(ctx)
	if err != nil {
		return model.TreasurySnapshot{}, err
	}

	txn := &model.Transaction{
		ID:          uuid.NewString(),
		Kind:        model.TransactionRevenue,
		Amount:      amount,
		Description: description,
		Timestamp:   time.Now().UTC(),
	}

	newBalance := state.Balance + amount
	if err := l.storage.AddRevenue(ctx, newBalance, txn); err != nil {
		return model.TreasurySnapshot{}, fmt.Errorf("failed to record revenue: %w", err)
	}

	state.Balance = newBalance
	snapshot := state.Snapshot()

	slog.Info("Recorded revenue",
		"amount", amount,
		"description", description,
		"balance", snapshot.Balance)
	return snapshot, nil
}

// loadOrBootstrap loads the persisted ledger, materializing defaults on
// first access. Callers must hold the mutex.
func (l *Ledger) loadOrBootstrap(ctx context.Context) (*model.LedgerState, error) {
	state, err := l.storage.GetLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	if state != nil {
		return state, nil
	}

	state = &model.LedgerState{
		Balance:         DefaultStartingCapital,
		StartingCapital: DefaultStartingCapital,
		BurnRate:        DefaultBurnRate,
		UpdatedAt:       time.Now().UTC(),
	}
	if err := l.storage.CreateLedger(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to bootstrap ledger: %w", err)
	}

	slog.Info("Bootstrapped treasury ledger",
		"starting_capital", state.StartingCapital,
		"burn_rate", state.BurnRate)
	return state, nil
}

func findReservation(state *model.LedgerState, id string) (*model.Reservation, error) {
	for i := range state.Reservations {
		if state.Reservations[i].ID != id {
			continue
		}
		res := &state.Reservations[i]
		if res.Status != model.ReservationReserved {
			return nil, fmt.Errorf("reservation %s is %s: %w", id, res.Status, common.ErrReservationFinalized)
		}
		return res, nil
	}
	return nil, fmt.Errorf("reservation %s: %w", id, common.ErrReservationNotFound)
}
