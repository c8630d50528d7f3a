package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar"

	ferrors "git.home.luguber.info/inful/devflow/internal/foundation/errors"
)

// ValidateConfig checks a defaulted configuration.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateTemplates(); err != nil {
		return err
	}
	if err := cv.validateFormat(); err != nil {
		return err
	}
	if err := cv.validateServer(); err != nil {
		return err
	}
	if err := cv.validateWatch(); err != nil {
		return err
	}
	if err := cv.validateGlobs(); err != nil {
		return err
	}
	return cv.validateLogging()
}

func (cv *configurationValidator) validateTemplates() error {
	t := cv.config.Templates
	for name, ext := range map[string]string{"templates.extension": t.Extension, "templates.output_extension": t.OutputExtension} {
		if !strings.HasPrefix(ext, ".") {
			return invalid(name, ext, "must start with '.'")
		}
	}
	if t.Extension == t.OutputExtension && t.BaseDir == t.OutputDir {
		return invalid("templates.output_extension", t.OutputExtension, "would overwrite the sources")
	}
	for _, ext := range t.Sources {
		if !strings.HasPrefix(ext, ".") {
			return invalid("templates.sources", ext, "must start with '.'")
		}
		if ext == t.Extension {
			return invalid("templates.sources", ext, "duplicates templates.extension")
		}
	}
	return nil
}

func (cv *configurationValidator) validateFormat() error {
	f := cv.config.Format
	if f.IndentSize < 0 {
		return invalid("format.indent_size", fmt.Sprint(f.IndentSize), "must be >= 0")
	}
	if f.IndentChar != " " && f.IndentChar != "\t" {
		return invalid("format.indent_char", f.IndentChar, "must be a single space or a tab")
	}
	return nil
}

func (cv *configurationValidator) validateServer() error {
	if p := cv.config.Server.Port; p < 1 || p > 65535 {
		return invalid("server.port", fmt.Sprint(p), "must be between 1 and 65535")
	}
	if m := cv.config.Metrics; m.Enabled && !strings.HasPrefix(m.Path, "/") {
		return invalid("metrics.path", m.Path, "must start with '/'")
	}
	return nil
}

func (cv *configurationValidator) validateWatch() error {
	w := cv.config.Watch
	if d, err := time.ParseDuration(w.Debounce); err != nil || d <= 0 {
		return invalid("watch.debounce", w.Debounce, "must be a positive duration")
	}
	if w.RescanInterval != "" {
		if d, err := time.ParseDuration(w.RescanInterval); err != nil || d < time.Second {
			return invalid("watch.rescan_interval", w.RescanInterval, "must be a duration of at least 1s")
		}
	}
	return nil
}

func (cv *configurationValidator) validateGlobs() error {
	c := cv.config
	groups := map[string][]string{
		"templates.fragments": c.Templates.Fragments,
		"templates.skip":      c.Templates.Skip,
		"styles.watch":        c.Styles.Watch,
		"images.watch":        c.Images.Watch,
		"scripts.watch":       c.Scripts.Watch,
		"clean.targets":       c.Clean.Targets,
	}
	for field, patterns := range groups {
		for _, p := range patterns {
			// Match reports ErrBadPattern for malformed globs regardless of the name.
			if _, err := doublestar.Match(p, "x"); err != nil {
				return invalid(field, p, err.Error())
			}
		}
	}
	return nil
}

func (cv *configurationValidator) validateLogging() error {
	if _, err := logLevelNormalizer.Parse(cv.config.Logging.Level); err != nil {
		return invalid("logging.level", cv.config.Logging.Level, err.Error())
	}
	if _, err := logFormatNormalizer.Parse(cv.config.Logging.Format); err != nil {
		return invalid("logging.format", cv.config.Logging.Format, err.Error())
	}
	return nil
}

func invalid(field, value, reason string) error {
	return ferrors.ValidationError(fmt.Sprintf("invalid %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("value", value).
		Build()
}
