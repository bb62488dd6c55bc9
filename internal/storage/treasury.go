package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/quillback/autoscout/internal/common"
	"github.com/quillback/autoscout/internal/model"
)

// GetLedger loads the full treasury record: the singleton balance row plus
// all reservations and ledger transactions. Returns nil (no error) when the
// ledger has never been initialized.
func (s *SQLiteStorage) GetLedger(ctx context.Context) (*model.LedgerState, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	state := &model.LedgerState{}
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT balance, starting_capital, burn_rate, updated_at FROM treasury WHERE id = 1`).
		Scan(&state.Balance, &state.StartingCapital, &state.BurnRate, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load treasury: %w", err)
	}
	state.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse treasury updated_at: %w", err)
	}

	state.Reservations, err = s.loadReservations(ctx)
	if err != nil {
		return nil, err
	}
	state.Transactions, err = s.loadTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// CreateLedger bootstraps the treasury record. Fails if one already exists.
func (s *SQLiteStorage) CreateLedger(ctx context.Context, state *model.LedgerState) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("%w: state", ErrNilParameter)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO treasury (id, balance, starting_capital, burn_rate, updated_at)
		VALUES (1, ?, ?, ?, ?)`,
		state.Balance, state.StartingCapital, state.BurnRate,
		state.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("treasury already bootstrapped: %w", common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create treasury: %w", err)
	}
	return nil
}

// AddReservation appends a new reservation.
func (s *SQLiteStorage) AddReservation(ctx context.Context, res *model.Reservation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReservation(res); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reservations (id, amount, reason, status, actual_cost, created_at, committed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.Amount, res.Reason, string(res.Status), res.ActualCost,
		res.CreatedAt.UTC().Format(time.RFC3339Nano), nullTime(res.CommittedAt))
	if err != nil {
		return fmt.Errorf("failed to insert reservation: %w", err)
	}
	return nil
}

// UpdateReservation rewrites a reservation row (used for cancellation).
func (s *SQLiteStorage) UpdateReservation(ctx context.Context, res *model.Reservation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReservation(res); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE reservations SET status = ?, actual_cost = ?, committed_at = ? WHERE id = ?`,
		string(res.Status), res.ActualCost, nullTime(res.CommittedAt), res.ID)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("reservation %s: no rows updated", res.ID)
	}
	return nil
}

// CommitReservation finalizes a reservation, writes the new balance and
// appends the expense transaction atomically.
func (s *SQLiteStorage) CommitReservation(ctx context.Context, res *model.Reservation, newBalance float64, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReservation(res); err != nil {
		return err
	}
	if err := validateLedgerTransaction(txn); err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE reservations SET status = ?, actual_cost = ?, committed_at = ? WHERE id = ?`,
			string(res.Status), res.ActualCost, nullTime(res.CommittedAt), res.ID)
		if err != nil {
			return fmt.Errorf("failed to update reservation: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("reservation %s: no rows updated", res.ID)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE treasury SET balance = ?, updated_at = ? WHERE id = 1`,
			newBalance, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		if err := insertTransaction(ctx, tx, txn); err != nil {
			return err
		}
		return nil
	})
}

// AddRevenue writes the new balance and appends the revenue transaction
// atomically.
func (s *SQLiteStorage) AddRevenue(ctx context.Context, newBalance float64, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLedgerTransaction(txn); err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE treasury SET balance = ?, updated_at = ? WHERE id = 1`,
			newBalance, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}
		return insertTransaction(ctx, tx, txn)
	})
}

func insertTransaction(ctx context.Context, tx *sql.Tx, txn *model.Transaction) error {
	var reservationID sql.NullString
	if txn.ReservationID != "" {
		reservationID = sql.NullString{String: txn.ReservationID, Valid: true}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_transactions (id, kind, amount, description, reservation_id, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		txn.ID, string(txn.Kind), txn.Amount, txn.Description, reservationID,
		txn.Timestamp.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) loadReservations(ctx context.Context) ([]model.Reservation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount, reason, status, actual_cost, created_at, committed_at
		FROM reservations ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reservations []model.Reservation
	for rows.Next() {
		var r model.Reservation
		var status, createdAt string
		var committedAt sql.NullString
		if err := rows.Scan(&r.ID, &r.Amount, &r.Reason, &status, &r.ActualCost, &createdAt, &committedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		r.Status = model.ReservationStatus(status)
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse reservation created_at: %w", err)
		}
		if committedAt.Valid {
			t, err := time.Parse(time.RFC3339Nano, committedAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse reservation committed_at: %w", err)
			}
			r.CommittedAt = &t
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

func (s *SQLiteStorage) loadTransactions(ctx context.Context) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, amount, description, reservation_id, timestamp
		FROM ledger_transactions ORDER BY timestamp, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var kind, timestamp string
		var reservationID sql.NullString
		if err := rows.Scan(&t.ID, &kind, &t.Amount, &t.Description, &reservationID, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Kind = model.TransactionKind(kind)
		if reservationID.Valid {
			t.ReservationID = reservationID.String
		}
		t.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transaction timestamp: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}
