package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/devflow/internal/assets"
	"git.home.luguber.info/inful/devflow/internal/build"
	"git.home.luguber.info/inful/devflow/internal/config"
	ferrors "git.home.luguber.info/inful/devflow/internal/foundation/errors"
	"git.home.luguber.info/inful/devflow/internal/logfields"
	"git.home.luguber.info/inful/devflow/internal/metrics"
	"git.home.luguber.info/inful/devflow/internal/workflow"
)

// Server is one development session.
type Server struct {
	cfg      *config.Config
	workflow *workflow.Workflow
	router   *Router
	hub      *LiveReloadHub
	overlay  *Overlay
	queue    *taskQueue
	registry *prom.Registry
	recorder metrics.Recorder
	clean    bool

	readyOnce sync.Once
	ready     chan struct{}
	addr      string
}

// Option configures a Server.
type Option func(*Server)

// WithOverlay shows failures collected by o in served pages. The same
// overlay must be registered with the workflow as notifier and listener.
func WithOverlay(o *Overlay) Option { return func(s *Server) { s.overlay = o } }

// WithMetrics exposes reg on the configured metrics path.
func WithMetrics(reg *prom.Registry) Option { return func(s *Server) { s.registry = reg } }

func WithRecorder(r metrics.Recorder) Option { return func(s *Server) { s.recorder = r } }

// WithClean removes generated outputs before the initial build.
func WithClean(clean bool) Option { return func(s *Server) { s.clean = clean } }

// New creates a session for cfg running tasks through wf.
func New(cfg *config.Config, wf *workflow.Workflow, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		workflow: wf,
		router:   NewRouter(cfg),
		queue:    newTaskQueue(cfg.Watch.DebounceDuration()),
		recorder: metrics.NoopRecorder{},
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlay == nil {
		s.overlay = NewOverlay()
	}
	s.hub = NewLiveReloadHub(s.recorder)
	return s
}

// Ready is closed once the server listens and the watcher is installed.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the listen address, valid after Ready.
func (s *Server) Addr() string { return s.addr }

// Handler returns the HTTP handler: static files from the server root with
// live reload injection, the live reload endpoints and optionally metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	files := http.FileServer(http.Dir(s.cfg.Path(s.cfg.Server.Root)))
	if s.cfg.Server.LiveReloadEnabled() {
		mux.Handle(LiveReloadPath, s.hub)
		mux.HandleFunc(LiveReloadScriptPath, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
			w.Header().Set("Cache-Control", "no-store")
			if _, err := w.Write([]byte(LiveReloadScript)); err != nil {
				slog.Error("failed to write livereload script", "error", err)
			}
		})
		mux.Handle("/", injectLiveReload(files, s.overlay))
	} else {
		mux.Handle("/", files)
	}
	if s.cfg.Metrics.Enabled && s.registry != nil {
		mux.Handle(s.cfg.Metrics.Path, metrics.HTTPHandler(s.registry))
	}
	return mux
}

// Run performs the initial build, serves and watches until ctx is done.
// Task failures never end the session. A batch that is running when ctx
// ends runs to completion before Run returns.
func (s *Server) Run(ctx context.Context) error {
	if err := s.workflow.Build(ctx, s.clean); err != nil {
		slog.Warn("Initial build finished with failures", logfields.Error(err))
	}

	ln, err := net.Listen("tcp", s.cfg.Server.Addr())
	if err != nil {
		return ferrors.ServerError("failed to listen").WithCause(err).WithContext("addr", s.cfg.Server.Addr()).Build()
	}
	s.addr = ln.Addr().String()
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second, IdleTimeout: 300 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	slog.Info("Development server listening", logfields.Addr("http://"+s.addr))

	watcher, err := s.setupFileWatcher()
	if err != nil {
		_ = srv.Close()
		return ferrors.FileSystemError("failed to watch project").WithCause(err).WithContext("root", s.cfg.Root).Build()
	}
	defer func() { _ = watcher.Close() }()

	scheduler, err := s.startRescan()
	if err != nil {
		_ = srv.Close()
		return err
	}

	workerDone := make(chan struct{})
	go s.worker(ctx, workerDone)
	s.readyOnce.Do(func() { close(s.ready) })

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-serveErr:
			runErr = ferrors.ServerError("http server failed").WithCause(err).Build()
			break loop
		case ev, ok := <-watcher.Events:
			if !ok {
				break loop
			}
			s.handleFileEvent(watcher, ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				break loop
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}

	slog.Info("Shutting down development server...")
	if scheduler != nil {
		if err := scheduler.Shutdown(); err != nil {
			slog.Warn("scheduler shutdown error", logfields.Error(err))
		}
	}
	s.queue.stop()
	s.hub.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	<-workerDone
	return runErr
}

// startRescan schedules the periodic full rescan of the template tree.
func (s *Server) startRescan() (gocron.Scheduler, error) {
	interval := s.cfg.Watch.RescanDuration()
	if interval <= 0 {
		return nil, nil
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.InternalError("failed to create scheduler").WithCause(err).Build()
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.queue.RequestNow(build.TriggerRescan, assets.TaskTemplates) }),
		gocron.WithName("templates-rescan"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, ferrors.InternalError(fmt.Sprintf("failed to schedule rescan every %s", interval)).WithCause(err).Build()
	}
	scheduler.Start()
	slog.Info("Periodic template rescan scheduled", slog.String("interval", interval.String()))
	return scheduler, nil
}

// worker runs batches one at a time until ctx is done.
func (s *Server) worker(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.queue.wake:
			s.runBatch(context.WithoutCancel(ctx))
		}
	}
}

// runBatch runs the pending tasks and sends one reload for the batch.
func (s *Server) runBatch(ctx context.Context) {
	tasks, trigger := s.queue.take()
	if len(tasks) == 0 {
		return
	}
	kind := ""
	for _, task := range tasks {
		changed, err := s.workflow.Run(ctx, task, trigger)
		switch {
		case err != nil:
			kind = ReloadError
		case !changed:
		case task == assets.TaskStyles:
			if kind == "" {
				kind = ReloadCSS
			}
		default:
			if kind != ReloadError {
				kind = ReloadPage
			}
		}
	}
	if kind != "" && s.cfg.Server.LiveReloadEnabled() {
		s.hub.Broadcast(kind)
	}
}
