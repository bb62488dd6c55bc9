package model

import (
	"math"
	"time"
)

// ReservationStatus tracks the one-way life cycle of a budget reservation.
type ReservationStatus string

// Reservation status constants. Transitions are reserved→committed and
// reserved→cancelled only; committed and cancelled are terminal.
const (
	ReservationReserved  ReservationStatus = "reserved"
	ReservationCommitted ReservationStatus = "committed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation is an earmarked, not-yet-spent allocation of treasury balance.
type Reservation struct {
	CreatedAt   time.Time         `json:"created_at"`
	CommittedAt *time.Time        `json:"committed_at,omitempty"`
	ID          string            `json:"id"`
	Reason      string            `json:"reason"`
	Status      ReservationStatus `json:"status"`
	Amount      float64           `json:"amount"`
	ActualCost  float64           `json:"actual_cost"`
}

// TransactionKind distinguishes ledger entries.
type TransactionKind string

// Transaction kind constants.
const (
	TransactionExpense TransactionKind = "expense"
	TransactionRevenue TransactionKind = "revenue"
)

// Transaction is an append-only ledger entry in becoin.
type Transaction struct {
	Timestamp     time.Time       `json:"timestamp"`
	ID            string          `json:"id"`
	Kind          TransactionKind `json:"kind"`
	Description   string          `json:"description"`
	ReservationID string          `json:"reservation_id,omitempty"`
	Amount        float64         `json:"amount"`
}

// LedgerState is the persisted treasury record: the single source of truth for
// balance, reservations and transaction history.
type LedgerState struct {
	UpdatedAt       time.Time     `json:"updated_at"`
	Reservations    []Reservation `json:"reservations"`
	Transactions    []Transaction `json:"transactions"`
	Balance         float64       `json:"balance"`
	StartingCapital float64       `json:"starting_capital"`
	// BurnRate is becoin spent per hour of operation.
	BurnRate float64 `json:"burn_rate"`
}

// Reserved sums the amounts of reservations still in the reserved state.
func (l *LedgerState) Reserved() float64 {
	var total float64
	for _, r := range l.Reservations {
		if r.Status == ReservationReserved {
			total += r.Amount
		}
	}
	return total
}

// TreasurySnapshot is a derived, read-only view of the ledger. Never stored.
type TreasurySnapshot struct {
	Balance         float64 `json:"balance"`
	StartingCapital float64 `json:"starting_capital"`
	BurnRate        float64 `json:"burn_rate"`
	// RunwayHours is balance divided by burn rate; +Inf when burn rate is zero
	// or negative.
	RunwayHours float64 `json:"runway_hours"`
	Reserved    float64 `json:"reserved"`
	// Available is balance minus reserved, floored at zero.
	Available float64 `json:"available"`
}

// Snapshot derives the current treasury view from ledger state.
func (l *LedgerState) Snapshot() TreasurySnapshot {
	reserved := l.Reserved()
	available := l.Balance - reserved
	if available < 0 {
		available = 0
	}
	runway := math.Inf(1)
	if l.BurnRate > 0 {
		runway = l.Balance / l.BurnRate
	}
	return TreasurySnapshot{
		Balance:         l.Balance,
		StartingCapital: l.StartingCapital,
		BurnRate:        l.BurnRate,
		RunwayHours:     runway,
		Reserved:        reserved,
		Available:       available,
	}
}
