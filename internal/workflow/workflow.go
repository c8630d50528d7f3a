// Package workflow sequences the project tasks (clean, templates, styles,
// images, scripts) for the one-shot build and the watch session.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/devflow/internal/assets"
	"git.home.luguber.info/inful/devflow/internal/build"
	"git.home.luguber.info/inful/devflow/internal/config"
	"git.home.luguber.info/inful/devflow/internal/logfields"
	"git.home.luguber.info/inful/devflow/internal/metrics"
	"git.home.luguber.info/inful/devflow/internal/notify"
)

// Listener observes finished tasks. The dev server overlay uses it to drop
// failures once they are fixed.
type Listener interface {
	TaskFinished(task string, err error)
	CycleFinished(report *build.CycleReport)
}

// Workflow owns the task implementations for one project.
type Workflow struct {
	cfg        *config.Config
	pipeline   *build.Pipeline
	styles     *assets.Styles
	images     *assets.Images
	runner     *assets.Runner
	notifier   notify.Notifier
	recorder   metrics.Recorder
	listeners  []Listener
	production bool
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithPipeline replaces the template pipeline.
func WithPipeline(p *build.Pipeline) Option { return func(w *Workflow) { w.pipeline = p } }

// WithCompiler replaces the stylesheet compiler.
func WithCompiler(c assets.Compiler) Option {
	return func(w *Workflow) { w.styles = assets.NewStyles(w.cfg, c) }
}

func WithNotifier(n notify.Notifier) Option { return func(w *Workflow) { w.notifier = n } }

func WithRecorder(r metrics.Recorder) Option { return func(w *Workflow) { w.recorder = r } }

func WithListener(l Listener) Option { return func(w *Workflow) { w.listeners = append(w.listeners, l) } }

// WithProduction selects compressed stylesheet output.
func WithProduction(production bool) Option { return func(w *Workflow) { w.production = production } }

// New assembles a workflow for cfg.
func New(cfg *config.Config, opts ...Option) *Workflow {
	w := &Workflow{cfg: cfg, notifier: notify.NewLogNotifier(nil), recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(w)
	}
	if w.pipeline == nil {
		w.pipeline = build.NewPipeline(cfg, build.WithRecorder(w.recorder))
	}
	if w.styles == nil {
		w.styles = assets.NewStyles(cfg, nil)
	}
	w.images = assets.NewImages(cfg)
	w.runner = assets.NewRunner(w.recorder, w.notifier)
	return w
}

// Pipeline returns the template pipeline.
func (w *Workflow) Pipeline() *build.Pipeline { return w.pipeline }

// Build runs a complete one-shot build: optional clean, then templates from
// a fresh state (every compilable document), styles and images. Every task
// runs even when an earlier one failed; the first failure is returned.
func (w *Workflow) Build(ctx context.Context, clean bool) error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	if clean {
		keep(w.Clean(ctx, false))
	}
	w.pipeline.Reset()
	for _, task := range []string{assets.TaskTemplates, assets.TaskStyles, assets.TaskImages} {
		_, err := w.Run(ctx, task, build.TriggerBuild)
		keep(err)
	}
	return first
}

// Clean removes the generated outputs, or the favicon set when favicons is
// true.
func (w *Workflow) Clean(ctx context.Context, favicons bool) error {
	name, patterns := assets.TaskClean, w.cfg.Clean.Targets
	if favicons {
		name, patterns = assets.TaskCleanFavicons, w.cfg.Clean.Favicons
	}
	err := w.runner.Run(ctx, name, func(context.Context) error {
		removed, err := assets.Clean(w.cfg.Root, patterns)
		if len(removed) > 0 {
			slog.Info("Removed generated files", logfields.Task(name), slog.Any("paths", removed))
		}
		return err
	})
	w.finished(name, err)
	return err
}

// Run executes one task and reports whether it produced anything the
// browser should reload for.
func (w *Workflow) Run(ctx context.Context, task string, trigger build.Trigger) (bool, error) {
	var changed bool
	err := w.runner.Run(ctx, task, func(ctx context.Context) error {
		var err error
		changed, err = w.run(ctx, task, trigger)
		return err
	})
	w.finished(task, err)
	return changed, err
}

func (w *Workflow) finished(task string, err error) {
	for _, l := range w.listeners {
		l.TaskFinished(task, err)
	}
}

func (w *Workflow) run(ctx context.Context, task string, trigger build.Trigger) (bool, error) {
	switch task {
	case assets.TaskTemplates:
		return w.templates(ctx, trigger)
	case assets.TaskStyles:
		if !w.cfg.Styles.IsEnabled() {
			return false, nil
		}
		return true, w.styles.Run(ctx, w.production)
	case assets.TaskImages:
		if !w.cfg.Images.Enabled {
			return false, nil
		}
		report, err := w.images.Run(ctx)
		if report == nil {
			return false, err
		}
		return len(report.Results) > 0 || len(report.Removed) > 0, err
	case assets.TaskScripts:
		// Scripts are served as written; a change only reloads the browser.
		return true, nil
	default:
		return false, fmt.Errorf("unknown task %q", task)
	}
}

func (w *Workflow) templates(ctx context.Context, trigger build.Trigger) (bool, error) {
	report, err := w.pipeline.RunCycle(ctx, trigger)
	report.Notify(ctx, w.notifier)
	for _, l := range w.listeners {
		l.CycleFinished(report)
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", assets.ErrReported, err)
	}
	if failed := report.Failures(); len(failed) > 0 {
		return report.Changed(), fmt.Errorf("%d document(s) failed to compile: %w", len(failed), assets.ErrReported)
	}
	return report.Changed(), nil
}
