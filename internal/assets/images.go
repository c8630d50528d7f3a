package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"git.home.luguber.info/inful/devflow/internal/config"
	"git.home.luguber.info/inful/devflow/internal/docs"
	"git.home.luguber.info/inful/devflow/internal/incremental"
	"git.home.luguber.info/inful/devflow/internal/logfields"
)

// ImageResult is the outcome for one processed image.
type ImageResult struct {
	Path   string
	Before int64
	After  int64
	Err    error
}

// Saved returns the bytes removed by optimization, negative when it grew.
func (r ImageResult) Saved() int64 { return r.Before - r.After }

// ImagesReport summarizes one images run.
type ImagesReport struct {
	Results []ImageResult
	Removed []string
}

// Totals sums sizes over successful results.
func (r *ImagesReport) Totals() (before, after int64) {
	for _, res := range r.Results {
		if res.Err == nil {
			before += res.Before
			after += res.After
		}
	}
	return before, after
}

// Failed returns results whose processing failed.
func (r *ImagesReport) Failed() []ImageResult {
	var out []ImageResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Images copies changed images to the output directory and runs the
// optimizer on them. Unchanged images are skipped using the same
// fingerprint detector as templates.
type Images struct {
	sourceDir string
	outputDir string
	optimizer []string
	detector  *incremental.Detector
}

// NewImages creates the images task for cfg.
func NewImages(cfg *config.Config) *Images {
	return &Images{
		sourceDir: cfg.Path(cfg.Images.SourceDir),
		outputDir: cfg.Path(cfg.Images.OutputDir),
		optimizer: cfg.Images.Optimizer,
		detector:  incremental.NewDetector(docs.Rules{}, nil),
	}
}

// InPlace reports whether images are optimized inside the source directory.
func (i *Images) InPlace() bool {
	return filepath.Clean(i.sourceDir) == filepath.Clean(i.outputDir)
}

// Run processes every image changed since the previous run.
func (i *Images) Run(ctx context.Context) (*ImagesReport, error) {
	if _, err := os.Stat(i.sourceDir); os.IsNotExist(err) {
		slog.Debug("Image source directory missing, nothing to do", logfields.Path(i.sourceDir))
		return &ImagesReport{}, nil
	}

	changes, err := i.detector.Detect(ctx, i.sourceDir)
	if err != nil {
		return nil, err
	}

	report := &ImagesReport{}
	for _, rel := range changes.Changed {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := i.process(ctx, rel)
		if res.Err != nil {
			slog.Warn("Image processing failed", logfields.Path(rel), logfields.Error(res.Err))
		}
		report.Results = append(report.Results, res)
	}

	if !i.InPlace() {
		for _, rel := range changes.Removed {
			target := filepath.Join(i.outputDir, filepath.FromSlash(rel))
			if err := os.Remove(target); err == nil {
				report.Removed = append(report.Removed, rel)
			}
		}
	}

	if len(report.Results) > 0 {
		before, after := report.Totals()
		slog.Info("Images processed",
			slog.Int("count", len(report.Results)),
			slog.String("before", humanize.Bytes(uint64(before))),
			slog.String("after", humanize.Bytes(uint64(after))),
			slog.String("saved", humanize.Bytes(uint64(max(before-after, 0)))))
	}
	if failed := report.Failed(); len(failed) > 0 {
		return report, fmt.Errorf("%d image(s) failed, first: %s: %w", len(failed), failed[0].Path, failed[0].Err)
	}
	return report, nil
}

func (i *Images) process(ctx context.Context, rel string) ImageResult {
	src := filepath.Join(i.sourceDir, filepath.FromSlash(rel))
	dst := filepath.Join(i.outputDir, filepath.FromSlash(rel))
	res := ImageResult{Path: rel}

	info, err := os.Stat(src)
	if err != nil {
		res.Err = err
		return res
	}
	res.Before = info.Size()

	if !i.InPlace() {
		if err := copyFile(src, dst); err != nil {
			res.Err = fmt.Errorf("copy image: %w", err)
			return res
		}
	}

	if len(i.optimizer) > 0 {
		if err := i.optimize(ctx, dst); err != nil {
			res.Err = err
			return res
		}
	}

	out, err := os.ReadFile(dst)
	if err != nil {
		res.Err = err
		return res
	}
	res.After = int64(len(out))

	// The optimized file must not count as a change on the next run.
	if i.InPlace() {
		i.detector.State()[rel] = docs.Fingerprint(out)
	}
	slog.Debug("Image processed", logfields.Path(rel),
		slog.String("before", humanize.Bytes(uint64(res.Before))),
		slog.String("after", humanize.Bytes(uint64(res.After))))
	return res
}

func (i *Images) optimize(ctx context.Context, file string) error {
	args := make([]string, len(i.optimizer))
	replaced := false
	for n, a := range i.optimizer {
		if strings.Contains(a, "{file}") {
			replaced = true
		}
		args[n] = strings.ReplaceAll(a, "{file}", file)
	}
	if !replaced {
		args = append(args, file)
	}

	// #nosec G204 -- optimizer command comes from the project configuration
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %w: %s", ErrOptimizerFailed, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	// #nosec G302 -- images are served to the browser
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
