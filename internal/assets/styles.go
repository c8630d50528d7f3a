package assets

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/devflow/internal/config"
)

// Compiler abstracts how the stylesheet compiler is invoked so tests can
// substitute the external binary.
type Compiler interface {
	Execute(ctx context.Context, dir string, args []string) error
}

// BinaryCompiler invokes an executable present on PATH.
type BinaryCompiler struct {
	Binary string
}

func (b *BinaryCompiler) Execute(ctx context.Context, dir string, args []string) error {
	bin, err := exec.LookPath(b.Binary)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCompilerNotFound, b.Binary, err)
	}

	// #nosec G204 -- binary and arguments come from the project configuration
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("Invoking stylesheet compiler", "binary", bin, "args", strings.Join(args, " "), "dir", dir)

	err = cmd.Run()
	if out := stdout.String(); out != "" {
		slog.Debug("stylesheet compiler stdout", "output", out)
	}
	if err != nil {
		output := strings.TrimSpace(stderr.String())
		if output == "" {
			output = strings.TrimSpace(stdout.String())
		}
		if output != "" {
			return fmt.Errorf("%w: %w: %s", ErrCompilerFailed, err, output)
		}
		return fmt.Errorf("%w: %w", ErrCompilerFailed, err)
	}
	return nil
}

// Styles compiles the stylesheet entry file.
type Styles struct {
	root      string
	entry     string
	outputDir string
	loadPaths []string
	compiler  Compiler
}

// NewStyles creates the styles task for cfg. A nil compiler uses the
// configured binary.
func NewStyles(cfg *config.Config, compiler Compiler) *Styles {
	if compiler == nil {
		compiler = &BinaryCompiler{Binary: cfg.Styles.Binary}
	}
	return &Styles{
		root:      cfg.Root,
		entry:     cfg.Styles.Entry,
		outputDir: cfg.Styles.OutputDir,
		loadPaths: cfg.Styles.LoadPaths,
		compiler:  compiler,
	}
}

// Output returns the project relative path of the compiled stylesheet.
func (s *Styles) Output() string {
	base := filepath.Base(s.entry)
	return filepath.Join(s.outputDir, strings.TrimSuffix(base, filepath.Ext(base))+".css")
}

// Args returns the compiler arguments. Development output is expanded with
// an embedded source map; production output is compressed without maps.
func (s *Styles) Args(production bool) []string {
	var args []string
	if production {
		args = append(args, "--style=compressed", "--no-source-map")
	} else {
		args = append(args, "--style=expanded", "--embed-source-map")
	}
	for _, p := range s.loadPaths {
		args = append(args, "--load-path="+p)
	}
	return append(args, s.entry, s.Output())
}

// Run compiles the stylesheet.
func (s *Styles) Run(ctx context.Context, production bool) error {
	if err := os.MkdirAll(filepath.Join(s.root, s.outputDir), 0o750); err != nil {
		return fmt.Errorf("create stylesheet output dir: %w", err)
	}
	return s.compiler.Execute(ctx, s.root, s.Args(production))
}
