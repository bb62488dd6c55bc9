package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/quillback/autoscout/internal/extractor"
	"github.com/quillback/autoscout/internal/model"
	"github.com/quillback/autoscout/internal/storage"
	"github.com/quillback/autoscout/internal/treasury"
)

func newTestEngine(t *testing.T, telemetryDir string) (*DiscoveryEngine, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	analyzer := extractor.NewDirAnalyzer(telemetryDir)
	ledger := treasury.NewLedger(store)
	return New(analyzer, ledger, store, DefaultConfig()), store
}

// writeInteractions seeds enough repeated error observations to survive
// classification: error patterns need frequency above 3 and enough combined
// weight to clear the default confidence filter.
func writeInteractions(t *testing.T, dir string) {
	t.Helper()
	var lines []string
	for i := 0; i < 6; i++ {
		ts := time.Now().Add(-time.Duration(i+1) * time.Hour).UTC().Format(time.RFC3339Nano)
		lines = append(lines, fmt.Sprintf(
			`{"ts":%q,"action":"redeploy worker","detail":"deploy pipeline failed","outcome":"error","duration_min":20}`, ts))
	}
	path := filepath.Join(dir, "interactions.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("Failed to write telemetry: %v", err)
	}
}

type recordingObserver struct {
	events []StageEvent
}

func (r *recordingObserver) StageCompleted(event StageEvent) {
	r.events = append(r.events, event)
}

func TestDiscoverEndToEnd(t *testing.T) {
	telemetry := t.TempDir()
	writeInteractions(t, telemetry)

	engine, store := newTestEngine(t, telemetry)
	observer := &recordingObserver{}
	engine.SetObserver(observer)
	ctx := context.Background()

	session, err := engine.Discover(ctx)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if session.Status != model.SessionCompleted {
		t.Errorf("Status = %s, want %s", session.Status, model.SessionCompleted)
	}
	if !strings.HasPrefix(session.ID, "ses-") {
		t.Errorf("ID = %q, want ses- prefix", session.ID)
	}
	if session.CompletedAt.IsZero() {
		t.Error("CompletedAt not set")
	}
	if len(session.Patterns) == 0 {
		t.Fatal("no patterns extracted")
	}
	if len(session.PainPoints) == 0 {
		t.Fatal("no pain points classified")
	}
	if len(session.Proposals) == 0 {
		t.Fatal("no proposals synthesized")
	}
	for i := range session.Proposals {
		if session.Proposals[i].Prediction == nil {
			t.Errorf("proposal %d has no prediction", i)
		}
	}

	// Proposals come back ordered by expected ROI, best first.
	for i := 1; i < len(session.Proposals); i++ {
		if session.Proposals[i].Prediction.ExpectedROI > session.Proposals[i-1].Prediction.ExpectedROI {
			t.Errorf("proposals not sorted by ROI at %d", i)
		}
	}

	// The full session must be retrievable from storage.
	stored, err := store.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if len(stored.Proposals) != len(session.Proposals) {
		t.Errorf("stored proposals = %d, want %d", len(stored.Proposals), len(session.Proposals))
	}

	// Every stage reported, in pipeline order.
	wantStages := []Stage{StageExtract, StageClassify, StagePropose, StageForecast, StagePersisted}
	if len(observer.events) != len(wantStages) {
		t.Fatalf("events = %d, want %d", len(observer.events), len(wantStages))
	}
	for i, event := range observer.events {
		if event.Stage != wantStages[i] {
			t.Errorf("event %d stage = %s, want %s", i, event.Stage, wantStages[i])
		}
		if event.SessionID != session.ID {
			t.Errorf("event %d session = %s, want %s", i, event.SessionID, session.ID)
		}
	}
}

func TestDiscoverEmptyTelemetry(t *testing.T) {
	engine, store := newTestEngine(t, t.TempDir())
	ctx := context.Background()

	session, err := engine.Discover(ctx)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if session.Status != model.SessionCompleted {
		t.Errorf("Status = %s, want %s", session.Status, model.SessionCompleted)
	}
	if len(session.Proposals) != 0 {
		t.Errorf("Proposals = %d, want 0", len(session.Proposals))
	}

	// Even an empty run persists its session.
	if _, err := store.GetSession(ctx, session.ID); err != nil {
		t.Errorf("GetSession() error = %v", err)
	}
}

func TestDiscoverCancelled(t *testing.T) {
	engine, _ := newTestEngine(t, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Discover(ctx); err == nil {
		t.Error("Discover() with cancelled context succeeded")
	}
}

func TestSessionIDsAreOrdered(t *testing.T) {
	first := newSessionID()
	time.Sleep(2 * time.Millisecond)
	second := newSessionID()

	if first == second {
		t.Fatal("session ids collide")
	}
	if !(first < second) {
		t.Errorf("ids not timestamp ordered: %s then %s", first, second)
	}
}
