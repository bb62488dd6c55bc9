package model

import (
	"math"
	"testing"
	"time"
)

func TestLedgerStateReserved(t *testing.T) {
	state := LedgerState{
		Balance: 100000,
		Reservations: []Reservation{
			{ID: "r1", Amount: 500, Status: ReservationReserved},
			{ID: "r2", Amount: 300, Status: ReservationCommitted},
			{ID: "r3", Amount: 200, Status: ReservationCancelled},
			{ID: "r4", Amount: 1000, Status: ReservationReserved},
		},
	}

	if got := state.Reserved(); got != 1500 {
		t.Errorf("Reserved() = %v, want 1500", got)
	}
}

func TestLedgerStateSnapshot(t *testing.T) {
	tests := []struct {
		name          string
		state         LedgerState
		wantAvailable float64
		wantReserved  float64
		wantRunwayInf bool
		wantRunway    float64
	}{
		{
			name: "normal balances",
			state: LedgerState{
				Balance:         100000,
				StartingCapital: 100000,
				BurnRate:        250,
				Reservations: []Reservation{
					{ID: "r1", Amount: 2500, Status: ReservationReserved},
				},
			},
			wantAvailable: 97500,
			wantReserved:  2500,
			wantRunway:    400,
		},
		{
			name: "available floors at zero",
			state: LedgerState{
				Balance:  100,
				BurnRate: 10,
				Reservations: []Reservation{
					{ID: "r1", Amount: 500, Status: ReservationReserved},
				},
			},
			wantAvailable: 0,
			wantReserved:  500,
			wantRunway:    10,
		},
		{
			name: "zero burn rate means unlimited runway",
			state: LedgerState{
				Balance:  5000,
				BurnRate: 0,
			},
			wantAvailable: 5000,
			wantRunwayInf: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := tt.state.Snapshot()
			if snap.Available != tt.wantAvailable {
				t.Errorf("Available = %v, want %v", snap.Available, tt.wantAvailable)
			}
			if snap.Reserved != tt.wantReserved {
				t.Errorf("Reserved = %v, want %v", snap.Reserved, tt.wantReserved)
			}
			if tt.wantRunwayInf {
				if !math.IsInf(snap.RunwayHours, 1) {
					t.Errorf("RunwayHours = %v, want +Inf", snap.RunwayHours)
				}
			} else if snap.RunwayHours != tt.wantRunway {
				t.Errorf("RunwayHours = %v, want %v", snap.RunwayHours, tt.wantRunway)
			}
		})
	}
}

func TestSnapshotIsDerived(t *testing.T) {
	state := LedgerState{Balance: 1000, BurnRate: 10, UpdatedAt: time.Now()}

	first := state.Snapshot()
	second := state.Snapshot()

	if first != second {
		t.Errorf("repeated snapshots differ: %+v vs %+v", first, second)
	}
}
