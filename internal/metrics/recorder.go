package metrics

import "time"

// ResultLabel enumerates per-item result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultSkipped ResultLabel = "skipped"
)

// CycleOutcome is the overall status of one incremental cycle.
type CycleOutcome string

const (
	// CycleIdle means nothing changed.
	CycleIdle    CycleOutcome = "idle"
	CycleSuccess CycleOutcome = "success"
	// CyclePartial means some documents failed while others compiled.
	CyclePartial CycleOutcome = "partial"
	CycleFailed  CycleOutcome = "failed"
)

// Recorder defines observability hooks. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObserveCycleDuration(d time.Duration)
	IncCycleOutcome(outcome CycleOutcome)
	AddChanges(changed, removed int)
	IncDocumentResult(result ResultLabel)
	ObserveTaskDuration(task string, d time.Duration)
	IncTaskResult(task string, result ResultLabel)
	IncLiveReload(kind string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are disabled).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCycleDuration(time.Duration)        {}
func (NoopRecorder) IncCycleOutcome(CycleOutcome)              {}
func (NoopRecorder) AddChanges(int, int)                       {}
func (NoopRecorder) IncDocumentResult(ResultLabel)             {}
func (NoopRecorder) ObserveTaskDuration(string, time.Duration) {}
func (NoopRecorder) IncTaskResult(string, ResultLabel)         {}
func (NoopRecorder) IncLiveReload(string)                      {}
