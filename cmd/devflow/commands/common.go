package commands

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/devflow/internal/config"
	ferrors "git.home.luguber.info/inful/devflow/internal/foundation/errors"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"devflow.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve   ServeCmd   `cmd:"" default:"withargs" help:"Build, serve with live reload and watch for changes (default)"`
	Build   BuildCmd   `cmd:"" help:"Run a complete one-shot build"`
	Clean   CleanCmd   `cmd:"" help:"Remove generated output"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	History HistoryCmd `cmd:"" help:"List recent compile cycles from the history store"`
}

// AfterApply runs after flag parsing; setup logging once. Commands that load
// a config replace the logger with the configured one.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig loads the configured file. A missing file at the default path
// falls back to the defaults rooted at the working directory.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		if !isMissingDefault(root.Config, err) {
			return nil, err
		}
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return nil, ferrors.FileSystemError("failed to resolve working directory").WithCause(wdErr).Build()
		}
		slog.Info("No configuration file found, using defaults", "path", root.Config)
		cfg = config.Default(wd)
		if err := config.ValidateConfig(cfg); err != nil {
			return nil, err
		}
	}
	logger := cfg.Logging.NewLogger(os.Stderr, root.Verbose)
	slog.SetDefault(logger)
	return cfg, nil
}

func isMissingDefault(path string, err error) bool {
	if filepath.Clean(path) != config.DefaultFile {
		return false
	}
	return errors.Is(err, os.ErrNotExist)
}
