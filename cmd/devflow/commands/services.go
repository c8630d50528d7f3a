package commands

import (
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/devflow/internal/build"
	"git.home.luguber.info/inful/devflow/internal/config"
	"git.home.luguber.info/inful/devflow/internal/eventstore"
	"git.home.luguber.info/inful/devflow/internal/metrics"
	"git.home.luguber.info/inful/devflow/internal/notify"
	"git.home.luguber.info/inful/devflow/internal/workflow"
)

// services holds the collaborators shared by build and serve.
type services struct {
	cfg      *config.Config
	notifier notify.Multi
	recorder metrics.Recorder
	registry *prom.Registry
	history  eventstore.Store
	closers  []func() error
}

// newServices wires notifiers, metrics and history from cfg. Optional
// collaborators that fail to start are logged and skipped.
func newServices(cfg *config.Config) *services {
	rt := &services{
		cfg:      cfg,
		notifier: notify.Multi{notify.NewLogNotifier(nil)},
		recorder: metrics.NoopRecorder{},
	}

	if url := cfg.Notify.NATS.URL; url != "" {
		n, err := notify.NewNATSNotifier(url, cfg.Notify.NATS.Subject)
		if err != nil {
			slog.Warn("NATS notifications disabled", "url", url, "error", err)
		} else {
			rt.notifier = append(rt.notifier, n)
			rt.closers = append(rt.closers, n.Close)
		}
	}

	if cfg.Metrics.Enabled {
		rt.registry = metrics.NewRegistry()
		rt.recorder = metrics.NewPrometheusRecorder(rt.registry)
	}

	if cfg.History.Path != "" {
		store, err := eventstore.NewSQLiteStore(cfg.Path(cfg.History.Path))
		if err != nil {
			slog.Warn("Cycle history disabled", "path", cfg.History.Path, "error", err)
		} else {
			rt.history = store
			rt.closers = append(rt.closers, store.Close)
		}
	}
	return rt
}

// newWorkflow assembles the task workflow; extra options are applied last.
func (rt *services) newWorkflow(production bool, extra ...workflow.Option) *workflow.Workflow {
	pipelineOpts := []build.Option{build.WithRecorder(rt.recorder)}
	if rt.history != nil {
		pipelineOpts = append(pipelineOpts, build.WithHistory(rt.history))
	}
	opts := []workflow.Option{
		workflow.WithPipeline(build.NewPipeline(rt.cfg, pipelineOpts...)),
		workflow.WithNotifier(rt.notifier),
		workflow.WithRecorder(rt.recorder),
		workflow.WithProduction(production),
	}
	return workflow.New(rt.cfg, append(opts, extra...)...)
}

func (rt *services) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			slog.Warn("Failed to close resource", "error", err)
		}
	}
}
