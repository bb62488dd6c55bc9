package engine

// Stage names a discovery pipeline stage.
type Stage string

// Discovery stages in execution order.
const (
	StageExtract   Stage = "extract"
	StageClassify  Stage = "classify"
	StagePropose   Stage = "propose"
	StageForecast  Stage = "forecast"
	StagePersisted Stage = "persisted"
)

// StageEvent is the fixed payload emitted after each completed stage. Every
// event carries the session id and how many items the stage produced.
type StageEvent struct {
	SessionID string
	Stage     Stage
	Produced  int
	Dropped   int
}

// StageObserver receives typed stage events from a discovery run. Observers
// must not block; they are invoked synchronously between stages.
type StageObserver interface {
	StageCompleted(event StageEvent)
}

// NopObserver ignores all events.
type NopObserver struct{}

// StageCompleted implements StageObserver.
func (NopObserver) StageCompleted(StageEvent) {}
