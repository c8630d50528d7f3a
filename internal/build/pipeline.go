package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/devflow/internal/config"
	"git.home.luguber.info/inful/devflow/internal/depgraph"
	"git.home.luguber.info/inful/devflow/internal/docs"
	"git.home.luguber.info/inful/devflow/internal/eventstore"
	ferrors "git.home.luguber.info/inful/devflow/internal/foundation/errors"
	"git.home.luguber.info/inful/devflow/internal/htmlfmt"
	"git.home.luguber.info/inful/devflow/internal/incremental"
	"git.home.luguber.info/inful/devflow/internal/logfields"
	"git.home.luguber.info/inful/devflow/internal/metrics"
	"git.home.luguber.info/inful/devflow/internal/render"
)

// Formatter prettifies rendered output.
type Formatter interface {
	Format(src []byte) ([]byte, error)
}

// Pipeline is the incremental template compiler. It owns the fingerprint
// state of its tree; cycles are serialized by an internal mutex.
type Pipeline struct {
	mu sync.Mutex

	baseDir   string
	outputDir string
	outputExt string
	rules     docs.Rules

	detector  *incremental.Detector
	renderer  render.Renderer
	formatter Formatter
	recorder  metrics.Recorder
	history   eventstore.Store

	// documents of the latest scan, by path
	documents map[string]docs.Document
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRenderer replaces the template renderer.
func WithRenderer(r render.Renderer) Option {
	return func(p *Pipeline) { p.renderer = r }
}

// WithFormatter replaces the output formatter; nil disables formatting.
func WithFormatter(f Formatter) Option {
	return func(p *Pipeline) { p.formatter = f }
}

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithHistory records a CycleCompleted event after every cycle.
func WithHistory(s eventstore.Store) Option {
	return func(p *Pipeline) { p.history = s }
}

// WithState starts from a previously recorded fingerprint state.
func WithState(s incremental.State) Option {
	return func(p *Pipeline) { p.detector = incremental.NewDetector(p.rules, s) }
}

// NewPipeline creates a pipeline for the templates section of cfg.
func NewPipeline(cfg *config.Config, opts ...Option) *Pipeline {
	t := cfg.Templates
	p := &Pipeline{
		baseDir:   cfg.Path(t.BaseDir),
		outputDir: cfg.Path(t.OutputDir),
		outputExt: t.OutputExtension,
		rules:     docs.RulesFromConfig(t),
		recorder:  metrics.NoopRecorder{},
		documents: map[string]docs.Document{},
	}
	p.detector = incremental.NewDetector(p.rules, nil)
	p.renderer = render.NewTemplateRenderer(t.Extension, t.OutputExtension, render.WithSiteData(t.Data))
	if cfg.Format.IsEnabled() {
		p.formatter = htmlfmt.New(cfg.Format.IndentSize, cfg.Format.IndentChar)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BaseDir returns the absolute template tree root.
func (p *Pipeline) BaseDir() string { return p.baseDir }

// OutputDir returns the absolute output root.
func (p *Pipeline) OutputDir() string { return p.outputDir }

// State returns a copy of the fingerprint state.
func (p *Pipeline) State() incremental.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.detector.State().Clone()
}

// Reset forgets the fingerprint state so the next cycle compiles every page.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detector.Reset()
}

// RunCycle runs one complete incremental cycle. The returned error is only
// set when the tree could not be scanned; document failures are reported
// in the CycleReport.
func (p *Pipeline) RunCycle(ctx context.Context, trigger Trigger) (*CycleReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	report := &CycleReport{ID: uuid.NewString(), Trigger: trigger, StartedAt: time.Now()}
	logger := slog.Default().With(logfields.CycleID(report.ID))
	defer func() {
		report.Duration = time.Since(report.StartedAt)
		p.finish(ctx, report, logger)
	}()

	changes, err := p.detector.Detect(ctx, p.baseDir)
	if err != nil {
		report.Err = ferrors.FileSystemError("failed to scan template tree").
			WithCause(err).
			WithContext("base_dir", p.baseDir).
			Build()
		return report, report.Err
	}
	report.Changes = changes
	p.recorder.AddChanges(len(changes.Changed), len(changes.Removed))
	for _, u := range changes.Unreadable {
		logger.Warn("Skipping unreadable document", logfields.Document(u.Path), logfields.Error(u.Err))
	}

	p.documents = make(map[string]docs.Document, len(changes.Scan.Documents))
	for _, d := range changes.Scan.Documents {
		p.documents[d.Path] = d
	}

	if changes.Empty() {
		return report, nil
	}

	graph := depgraph.Build(changes.Scan.Documents, p.rules.Extension)
	report.Missing = graph.Missing()
	for _, m := range report.Missing {
		logger.Debug("Unresolved reference", logfields.Document(m.From), slog.String("target", m.Target), slog.String("kind", string(m.Kind)))
	}

	report.Affected = graph.ResolveAffected(changes.Starts(), p.isLiveCompilable)
	logger.Debug("Affected documents resolved",
		logfields.Changed(len(changes.Changed)),
		logfields.Removed(len(changes.Removed)),
		logfields.Affected(len(report.Affected)))

	report.Results = p.compile(ctx, report.Affected, logger)
	report.RemovedOutputs = p.pruneOutputs(changes.Removed, logger)
	return report, nil
}

func (p *Pipeline) isLiveCompilable(rel string) bool {
	if !p.rules.IsCompilable(rel) {
		return false
	}
	_, ok := p.documents[rel]
	return ok
}

// Compile renders, formats and writes each affected document in order.
// A failing document yields a failed result and the batch continues.
func (p *Pipeline) Compile(ctx context.Context, affected []string) []DocumentResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.compile(ctx, affected, slog.Default())
}

func (p *Pipeline) compile(ctx context.Context, affected []string, logger *slog.Logger) []DocumentResult {
	results := make([]DocumentResult, 0, len(affected))
	for _, rel := range affected {
		res := p.compileOne(ctx, rel, logger)
		if res.OK() {
			p.recorder.IncDocumentResult(metrics.ResultSuccess)
			logger.Debug("Document compiled", logfields.Document(rel), logfields.Output(res.Output), logfields.Duration(res.Duration))
		} else {
			p.recorder.IncDocumentResult(metrics.ResultFailed)
			logger.Error("Document failed", logfields.Document(rel), logfields.Error(res.Err))
		}
		results = append(results, res)
	}
	return results
}

func (p *Pipeline) compileOne(ctx context.Context, rel string, logger *slog.Logger) DocumentResult {
	start := time.Now()
	out := docs.OutputPath(rel, p.outputExt)
	res := DocumentResult{Path: rel, Output: out, Status: StatusFailed}

	doc, err := p.lookup(rel)
	if err != nil {
		res.Err = ferrors.NotFoundError("document not found").WithCause(err).WithContext("document", rel).Build()
		res.Duration = time.Since(start)
		return res
	}

	rendered, err := p.renderer.Render(ctx, doc, p.baseDir)
	if err != nil {
		res.Err = ferrors.RenderError("failed to render document").WithCause(err).WithContext("document", rel).Build()
		res.Duration = time.Since(start)
		return res
	}

	if p.formatter != nil {
		formatted, ferr := p.formatter.Format(rendered)
		if ferr != nil {
			logger.Warn("Formatting failed, writing raw output", logfields.Document(rel), logfields.Error(ferr))
			res.Unformatted = true
		} else {
			rendered = formatted
		}
	}

	target := filepath.Join(p.outputDir, filepath.FromSlash(out))
	if err := writeOutput(target, rendered); err != nil {
		res.Err = ferrors.FileSystemError("failed to write output").WithCause(err).WithContext("output", target).Build()
		res.Duration = time.Since(start)
		return res
	}

	res.Status = StatusCompiled
	res.Bytes = len(rendered)
	res.Duration = time.Since(start)
	return res
}

// lookup returns the scanned document, reading it from disk when Compile is
// used without a preceding cycle.
func (p *Pipeline) lookup(rel string) (docs.Document, error) {
	if d, ok := p.documents[rel]; ok {
		return d, nil
	}
	abs := filepath.Join(p.baseDir, filepath.FromSlash(rel))
	content, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return docs.Document{}, fmt.Errorf("%w: %s", ErrDocumentMissing, rel)
		}
		return docs.Document{}, err
	}
	return docs.Document{Path: rel, Abs: abs, Content: content, Fingerprint: docs.Fingerprint(content)}, nil
}

func writeOutput(target string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return err
	}
	// #nosec G306 -- generated pages are served to the browser
	return os.WriteFile(target, content, 0o644)
}

// pruneOutputs deletes the outputs of removed compilable documents.
func (p *Pipeline) pruneOutputs(removed []string, logger *slog.Logger) []string {
	var pruned []string
	for _, rel := range removed {
		if !p.rules.IsCompilable(rel) {
			continue
		}
		out := docs.OutputPath(rel, p.outputExt)
		target := filepath.Join(p.outputDir, filepath.FromSlash(out))
		if err := os.Remove(target); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logger.Warn("Failed to remove stale output", logfields.Output(target), logfields.Error(err))
			}
			continue
		}
		logger.Info("Removed stale output", logfields.Document(rel), logfields.Output(out))
		pruned = append(pruned, out)
	}
	return pruned
}

func (p *Pipeline) finish(ctx context.Context, report *CycleReport, logger *slog.Logger) {
	p.recorder.ObserveCycleDuration(report.Duration)
	p.recorder.IncCycleOutcome(report.Outcome())

	if report.Changed() || report.Err != nil {
		logger.Info("Cycle complete",
			slog.String("trigger", string(report.Trigger)),
			logfields.Affected(len(report.Affected)),
			logfields.Compiled(report.Compiled()),
			logfields.Failed(len(report.Failures())),
			logfields.Duration(report.Duration))
	}

	if p.history == nil || (!report.Changed() && report.Err == nil) {
		return
	}
	if err := eventstore.RecordCycle(ctx, p.history, report.Summary()); err != nil {
		logger.Warn("Failed to record cycle history", logfields.Error(err))
	}
}
