package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/devflow/internal/depgraph"
	"git.home.luguber.info/inful/devflow/internal/eventstore"
	"git.home.luguber.info/inful/devflow/internal/incremental"
	"git.home.luguber.info/inful/devflow/internal/metrics"
	"git.home.luguber.info/inful/devflow/internal/notify"
)

// Trigger names what started a cycle.
type Trigger string

const (
	TriggerBuild  Trigger = "build"
	TriggerWatch  Trigger = "watch"
	TriggerRescan Trigger = "rescan"
)

// DocumentStatus is the outcome of compiling one document.
type DocumentStatus string

const (
	StatusCompiled DocumentStatus = "compiled"
	StatusFailed   DocumentStatus = "failed"
)

// DocumentResult is the per-document outcome of Compile.
type DocumentResult struct {
	Path     string
	Output   string
	Status   DocumentStatus
	Err      error
	Bytes    int
	Duration time.Duration
	// Unformatted is set when formatting failed and the raw output was written.
	Unformatted bool
}

// OK reports whether the document was written.
func (r DocumentResult) OK() bool { return r.Status == StatusCompiled }

// CycleReport describes one pipeline cycle.
type CycleReport struct {
	ID        string
	Trigger   Trigger
	StartedAt time.Time
	Duration  time.Duration

	Changes  *incremental.ChangeSet
	Missing  []depgraph.MissingRef
	Affected []string
	Results  []DocumentResult
	// RemovedOutputs are outputs deleted because their page was deleted.
	RemovedOutputs []string
	// Err is set when the tree could not be scanned at all.
	Err error
}

// Compiled returns the number of written documents.
func (r *CycleReport) Compiled() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Failures returns the failed document results.
func (r *CycleReport) Failures() []DocumentResult {
	var out []DocumentResult
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// HasFailures reports whether the scan or any document failed.
func (r *CycleReport) HasFailures() bool {
	return r.Err != nil || len(r.Failures()) > 0
}

// Changed reports whether the cycle wrote or removed anything.
func (r *CycleReport) Changed() bool {
	return len(r.Results) > 0 || len(r.RemovedOutputs) > 0
}

// Outcome classifies the cycle for metrics and history.
func (r *CycleReport) Outcome() metrics.CycleOutcome {
	failed := len(r.Failures())
	switch {
	case r.Err != nil:
		return metrics.CycleFailed
	case len(r.Results) == 0 && len(r.RemovedOutputs) == 0:
		return metrics.CycleIdle
	case failed == 0:
		return metrics.CycleSuccess
	case failed == len(r.Results):
		return metrics.CycleFailed
	default:
		return metrics.CyclePartial
	}
}

// Summary converts the report into its history record.
func (r *CycleReport) Summary() eventstore.CycleSummary {
	s := eventstore.CycleSummary{
		CycleID:    r.ID,
		Trigger:    string(r.Trigger),
		Outcome:    string(r.Outcome()),
		StartedAt:  r.StartedAt,
		DurationMS: r.Duration.Milliseconds(),
		Affected:   len(r.Affected),
		Compiled:   r.Compiled(),
	}
	if r.Changes != nil {
		s.Changed = len(r.Changes.Changed)
		s.Removed = len(r.Changes.Removed)
	}
	for _, f := range r.Failures() {
		s.Failed++
		s.Failures = append(s.Failures, f.Path)
	}
	return s
}

// Notify sends one message per failure of the cycle to n.
func (r *CycleReport) Notify(ctx context.Context, n notify.Notifier) {
	if n == nil {
		return
	}
	if r.Err != nil {
		msg := notify.Failure("templates", "", r.Err)
		msg.CycleID = r.ID
		n.Notify(ctx, msg)
	}
	for _, f := range r.Failures() {
		msg := notify.Failure("templates", f.Path, f.Err)
		msg.CycleID = r.ID
		n.Notify(ctx, msg)
	}
}
