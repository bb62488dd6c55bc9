package treasury

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillback/autoscout/internal/common"
	"github.com/quillback/autoscout/internal/storage"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return NewLedger(store)
}

func TestBootstrapDefaults(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	snap, err := ledger.GetSnapshot(ctx)
	require.NoError(t, err)

	assert.InDelta(t, DefaultStartingCapital, snap.Balance, 1e-9)
	assert.InDelta(t, DefaultStartingCapital, snap.StartingCapital, 1e-9)
	assert.InDelta(t, DefaultBurnRate, snap.BurnRate, 1e-9)
	assert.InDelta(t, 400, snap.RunwayHours, 1e-9)
	assert.Zero(t, snap.Reserved)
	assert.InDelta(t, DefaultStartingCapital, snap.Available, 1e-9)
}

func TestReserveBudgetConservation(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	res, err := ledger.ReserveBudget(ctx, 2500, "Automate: repeated action: deploy")
	require.NoError(t, err)
	require.NotEmpty(t, res.ID)

	snap, err := ledger.GetSnapshot(ctx)
	require.NoError(t, err)

	// Reserving moves money from available to reserved; balance untouched.
	assert.InDelta(t, 100000, snap.Balance, 1e-9)
	assert.InDelta(t, 2500, snap.Reserved, 1e-9)
	assert.InDelta(t, 97500, snap.Available, 1e-9)
}

func TestReserveBudgetRejections(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		wantErr error
	}{
		{"zero amount", 0, common.ErrInvalidAmount},
		{"negative amount", -50, common.ErrInvalidAmount},
		{"exceeds allocation cap", 20001, common.ErrAllocationCap},
		{"exceeds available balance", 150000, common.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := newTestLedger(t)
			_, err := ledger.ReserveBudget(context.Background(), tt.amount, "test")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAllocationCapShrinksWithAvailable(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	// A 20,000 reservation is exactly 20% of the 100,000 available.
	_, err := ledger.ReserveBudget(ctx, 20000, "first")
	require.NoError(t, err)

	// Available is now 80,000, so the cap drops to 16,000 and a second
	// 20,000 reservation must fail even though balance alone would allow it.
	_, err = ledger.ReserveBudget(ctx, 20000, "second")
	require.ErrorIs(t, err, common.ErrAllocationCap)
	assert.True(t, strings.Contains(err.Error(), "allocation limit exceeded"),
		"error should name the allocation limit: %v", err)
}

func TestCommitReservation(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	res, err := ledger.ReserveBudget(ctx, 2500, "Automate: repeated action: deploy")
	require.NoError(t, err)

	snap, err := ledger.CommitReservation(ctx, res.ID, 2000)
	require.NoError(t, err)

	assert.InDelta(t, 98000, snap.Balance, 1e-9)
	assert.Zero(t, snap.Reserved)
	assert.InDelta(t, 98000, snap.Available, 1e-9)
	assert.InDelta(t, 392, snap.RunwayHours, 1e-9)
}

func TestCommitDefaultsToReservedAmount(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	res, err := ledger.ReserveBudget(ctx, 1500, "fix recurring failure")
	require.NoError(t, err)

	snap, err := ledger.CommitReservation(ctx, res.ID, 0)
	require.NoError(t, err)
	assert.InDelta(t, 98500, snap.Balance, 1e-9)
}

func TestCommitMissingOrFinalizedReservation(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.CommitReservation(ctx, "res-missing", 100)
	assert.ErrorIs(t, err, common.ErrReservationNotFound)

	res, err := ledger.ReserveBudget(ctx, 1000, "once")
	require.NoError(t, err)
	_, err = ledger.CommitReservation(ctx, res.ID, 900)
	require.NoError(t, err)

	// A committed reservation cannot be committed or cancelled again.
	_, err = ledger.CommitReservation(ctx, res.ID, 900)
	assert.ErrorIs(t, err, common.ErrReservationFinalized)
	err = ledger.CancelReservation(ctx, res.ID)
	assert.ErrorIs(t, err, common.ErrReservationFinalized)
}

func TestCancelReservationReleasesFunds(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	res, err := ledger.ReserveBudget(ctx, 5000, "abandoned proposal")
	require.NoError(t, err)

	require.NoError(t, ledger.CancelReservation(ctx, res.ID))

	snap, err := ledger.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 100000, snap.Balance, 1e-9)
	assert.Zero(t, snap.Reserved)
	assert.InDelta(t, 100000, snap.Available, 1e-9)
}

func TestRecordRevenue(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	snap, err := ledger.RecordRevenue(ctx, 5000, "delivered automation value")
	require.NoError(t, err)
	assert.InDelta(t, 105000, snap.Balance, 1e-9)

	_, err = ledger.RecordRevenue(ctx, -5, "bogus")
	assert.ErrorIs(t, err, common.ErrInvalidAmount)
}

func TestConcurrentReservationsSerialize(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	// 19,000 fits the initial 20,000 cap, but once any one reservation
	// lands the cap shrinks below it, so later attempts must observe the
	// updated state rather than the balance they started with.
	const workers = 8
	const amount = 19000

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.ReserveBudget(ctx, amount, "concurrent")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, common.ErrAllocationCap)
		}
	}
	require.NotZero(t, succeeded)

	// Whatever interleaving happened, the books must balance: each success
	// moved exactly its amount from available to reserved.
	snap, err := ledger.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.InDelta(t, float64(succeeded*amount), snap.Reserved, 1e-9)
	assert.InDelta(t, 100000-float64(succeeded*amount), snap.Available, 1e-9)
	assert.InDelta(t, 100000, snap.Balance, 1e-9)
}
