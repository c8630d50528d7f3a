package assets

import (
	"context"
	"errors"
	"log/slog"
	"time"

	ferrors "git.home.luguber.info/inful/devflow/internal/foundation/errors"
	"git.home.luguber.info/inful/devflow/internal/logfields"
	"git.home.luguber.info/inful/devflow/internal/metrics"
	"git.home.luguber.info/inful/devflow/internal/notify"
)

// Task names shared by the CLI, the watch router and metrics labels.
const (
	TaskTemplates     = "templates"
	TaskStyles        = "styles"
	TaskImages        = "images"
	TaskScripts       = "scripts"
	TaskClean         = "clean"
	TaskCleanFavicons = "clean-favicons"
)

// Runner executes tasks with timing, metrics and failure notification.
type Runner struct {
	recorder metrics.Recorder
	notifier notify.Notifier
}

// NewRunner creates a runner. Nil arguments fall back to no-ops.
func NewRunner(rec metrics.Recorder, n notify.Notifier) *Runner {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if n == nil {
		n = notify.Multi{}
	}
	return &Runner{recorder: rec, notifier: n}
}

// Run executes fn as task name. A failure is notified, unless fn already
// reported it (ErrReported), and returned wrapped as a task error.
func (r *Runner) Run(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	d := time.Since(start)
	r.recorder.ObserveTaskDuration(name, d)

	if err != nil {
		r.recorder.IncTaskResult(name, metrics.ResultFailed)
		slog.Error("Task failed", logfields.Task(name), logfields.Duration(d), logfields.Error(err))
		if !errors.Is(err, ErrReported) {
			r.notifier.Notify(ctx, notify.Failure(name, "", err))
		}
		if _, ok := ferrors.AsClassified(err); ok {
			return err
		}
		return ferrors.TaskError("task failed").WithCause(err).WithContext("task", name).Build()
	}

	r.recorder.IncTaskResult(name, metrics.ResultSuccess)
	slog.Info("Task finished", logfields.Task(name), logfields.Duration(d))
	return nil
}
