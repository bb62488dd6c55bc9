// Package engine sequences the discovery pipeline: pattern extraction, pain
// point classification, proposal synthesis, impact forecasting and session
// persistence.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/quillback/autoscout/internal/classify"
	"github.com/quillback/autoscout/internal/common"
	"github.com/quillback/autoscout/internal/extractor"
	"github.com/quillback/autoscout/internal/forecast"
	"github.com/quillback/autoscout/internal/model"
	"github.com/quillback/autoscout/internal/service"
	"github.com/quillback/autoscout/internal/synth"
	"github.com/quillback/autoscout/internal/treasury"
)

// forecastConcurrency bounds the impact-forecast fan-out. Synthesis stays
// sequential because it consults live treasury state.
const forecastConcurrency = 4

// Config holds the orchestrator's tunables.
type Config struct {
	// Window is how far back pattern extraction looks.
	Window time.Duration
	// MinConfidence filters extracted patterns.
	MinConfidence float64
	// Budget bounds acceptable proposal costs.
	Budget synth.BudgetRange
	// TargetROI is forwarded to synthesis requests.
	TargetROI float64
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		Window:        7 * 24 * time.Hour,
		MinConfidence: 0.3,
		Budget:        synth.BudgetRange{Min: 50, Max: 5000},
		TargetROI:     2.0,
	}
}

// DiscoveryEngine orchestrates a discovery session end to end. Dependencies
// are injected at construction; nothing is loaded lazily inside handlers.
type DiscoveryEngine struct {
	analyzer *extractor.Analyzer
	ledger   *treasury.Ledger
	storage  service.Storage
	observer StageObserver
	config   Config
}

// New creates a discovery engine with the given dependencies.
func New(analyzer *extractor.Analyzer, ledger *treasury.Ledger, storage service.Storage, config Config) *DiscoveryEngine {
	return &DiscoveryEngine{
		analyzer: analyzer,
		ledger:   ledger,
		storage:  storage,
		observer: NopObserver{},
		config:   config,
	}
}

// SetObserver registers a stage observer. Must be called before Discover.
func (e *DiscoveryEngine) SetObserver(observer StageObserver) {
	if observer != nil {
		e.observer = observer
	}
}

// Discover runs one full discovery session: extract, classify, synthesize,
// forecast, persist. Any stage error aborts the whole call and nothing is
// persisted; a session only ever reaches storage with status completed.
func (e *DiscoveryEngine) Discover(ctx context.Context) (*model.Session, error) {
	session := &model.Session{
		ID:        newSessionID(),
		StartedAt: time.Now().UTC(),
		Status:    model.SessionAnalyzing,
	}

	slog.Info("Starting discovery session",
		"session_id", session.ID,
		"window", e.config.Window,
		"min_confidence", e.config.MinConfidence)

	patterns, err := e.analyzer.Analyze(ctx, e.config.Window, e.config.MinConfidence)
	if err != nil {
		return nil, fmt.Errorf("pattern extraction failed: %w", err)
	}
	session.Patterns = patterns
	e.observer.StageCompleted(StageEvent{SessionID: session.ID, Stage: StageExtract, Produced: len(patterns)})

	painPoints := classify.Classify(patterns)
	session.PainPoints = painPoints
	e.observer.StageCompleted(StageEvent{
		SessionID: session.ID,
		Stage:     StageClassify,
		Produced:  len(painPoints),
		Dropped:   len(patterns) - len(painPoints),
	})

	session.Status = model.SessionProposing

	proposals, err := e.synthesize(ctx, session.ID, painPoints)
	if err != nil {
		return nil, err
	}

	if err := e.predictAll(ctx, proposals); err != nil {
		return nil, fmt.Errorf("impact forecasting failed: %w", err)
	}
	e.observer.StageCompleted(StageEvent{SessionID: session.ID, Stage: StageForecast, Produced: len(proposals)})

	// Highest expected ROI first.
	sort.SliceStable(proposals, func(i, j int) bool {
		return proposals[i].Prediction.ExpectedROI > proposals[j].Prediction.ExpectedROI
	})
	session.Proposals = proposals

	session.Status = model.SessionCompleted
	session.CompletedAt = time.Now().UTC()

	persist := func() error { return e.storage.SaveSession(ctx, session) }
	if err := common.WithRetry(ctx, persist, service.RetryOptions{MaxAttempts: 3}); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	e.observer.StageCompleted(StageEvent{SessionID: session.ID, Stage: StagePersisted, Produced: len(proposals)})

	slog.Info("Discovery session completed",
		"session_id", session.ID,
		"patterns", len(session.Patterns),
		"pain_points", len(session.PainPoints),
		"proposals", len(session.Proposals))
	return session, nil
}

// synthesize generates at most one proposal per pain point, one at a time.
// Pain points that fail the budget or capacity gates are skipped.
func (e *DiscoveryEngine) synthesize(ctx context.Context, sessionID string, painPoints []model.PainPoint) ([]model.Proposal, error) {
	snapshot, err := e.ledger.GetSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read treasury: %w", err)
	}

	proposals := make([]model.Proposal, 0, len(painPoints))
	skipped := 0
	for _, pp := range painPoints {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		proposal := synth.Generate(synth.Request{
			PainPoint: pp,
			Budget:    e.config.Budget,
			TargetROI: e.config.TargetROI,
			Treasury:  snapshot,
		})
		if proposal == nil {
			skipped++
			continue
		}
		proposals = append(proposals, *proposal)
	}

	e.observer.StageCompleted(StageEvent{
		SessionID: sessionID,
		Stage:     StagePropose,
		Produced:  len(proposals),
		Dropped:   skipped,
	})
	return proposals, nil
}

// predictAll attaches an impact prediction to every proposal, fanning out
// with bounded concurrency. Forecasting is pure so the fan-out cannot race
// on shared state.
func (e *DiscoveryEngine) predictAll(ctx context.Context, proposals []model.Proposal) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(forecastConcurrency)

	for i := range proposals {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			prediction := forecast.Predict(&proposals[i])
			proposals[i].Prediction = &prediction
			return nil
		})
	}
	return g.Wait()
}

// newSessionID mints a timestamp-ordered session identifier.
func newSessionID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0) // #nosec G404 -- ids need ordering, not secrecy
	return "ses-" + ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
