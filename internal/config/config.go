package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/devflow/internal/foundation/errors"
)

// DefaultFile is the config file name used when --config is not given.
const DefaultFile = "devflow.yaml"

// Config is the complete devflow workflow configuration.
type Config struct {
	// Root is the project root every other relative path is resolved against.
	// Defaults to the directory holding the config file.
	Root string `yaml:"root,omitempty"`

	Templates TemplatesConfig `yaml:"templates"`
	Format    FormatConfig    `yaml:"format"`
	Styles    StylesConfig    `yaml:"styles"`
	Images    ImagesConfig    `yaml:"images"`
	Scripts   ScriptsConfig   `yaml:"scripts"`
	Server    ServerConfig    `yaml:"server"`
	Watch     WatchConfig     `yaml:"watch"`
	Clean     CleanConfig     `yaml:"clean"`
	Notify    NotifyConfig    `yaml:"notify"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	History   HistoryConfig   `yaml:"history"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// TemplatesConfig describes the template tree and where compiled pages go.
type TemplatesConfig struct {
	BaseDir         string   `yaml:"base_dir"`
	OutputDir       string   `yaml:"output_dir"`
	Extension       string   `yaml:"extension"`
	OutputExtension string   `yaml:"output_extension"`
	// Sources are extra extensions scanned for changes and includes (markdown).
	Sources []string `yaml:"sources,omitempty"`
	// Fragments are doublestar globs (relative to BaseDir) marking include-only files.
	Fragments []string `yaml:"fragments,omitempty"`
	// Skip globs are never scanned.
	Skip []string       `yaml:"skip,omitempty"`
	Data map[string]any `yaml:"data,omitempty"`
}

// FormatConfig controls output prettifying.
type FormatConfig struct {
	Enabled    *bool  `yaml:"enabled,omitempty"`
	IndentSize int    `yaml:"indent_size"`
	IndentChar string `yaml:"indent_char"`
}

// IsEnabled reports whether output is re-indented (default true).
func (f FormatConfig) IsEnabled() bool { return f.Enabled == nil || *f.Enabled }

// StylesConfig drives the external stylesheet compiler.
type StylesConfig struct {
	Enabled   *bool    `yaml:"enabled,omitempty"`
	Binary    string   `yaml:"binary"`
	Entry     string   `yaml:"entry"`
	OutputDir string   `yaml:"output_dir"`
	LoadPaths []string `yaml:"load_paths,omitempty"`
	Watch     []string `yaml:"watch,omitempty"`
}

func (s StylesConfig) IsEnabled() bool { return s.Enabled == nil || *s.Enabled }

// ImagesConfig drives incremental image processing. Off unless enabled.
type ImagesConfig struct {
	Enabled   bool     `yaml:"enabled"`
	SourceDir string   `yaml:"source_dir"`
	OutputDir string   `yaml:"output_dir"`
	// Optimizer is an argv run per changed image; "{file}" is replaced with its path.
	Optimizer []string `yaml:"optimizer,omitempty"`
	Watch     []string `yaml:"watch,omitempty"`
}

// ScriptsConfig only lists globs whose changes reload the browser.
type ScriptsConfig struct {
	Watch []string `yaml:"watch,omitempty"`
}

// ServerConfig is the development server.
type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Root       string `yaml:"root"`
	LiveReload *bool  `yaml:"live_reload,omitempty"`
}

func (s ServerConfig) LiveReloadEnabled() bool { return s.LiveReload == nil || *s.LiveReload }

// Addr returns host:port.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// WatchConfig tunes the watch session. Durations use time.ParseDuration syntax.
type WatchConfig struct {
	Debounce       string `yaml:"debounce"`
	RescanInterval string `yaml:"rescan_interval,omitempty"`
}

// DebounceDuration returns the parsed debounce window (300ms when invalid).
func (w WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return 300 * time.Millisecond
	}
	return d
}

// RescanDuration returns the periodic rescan interval, zero when disabled.
func (w WatchConfig) RescanDuration() time.Duration {
	if w.RescanInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(w.RescanInterval)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// CleanConfig lists generated outputs removed by the clean tasks.
type CleanConfig struct {
	Targets  []string `yaml:"targets,omitempty"`
	Favicons []string `yaml:"favicons,omitempty"`
}

// NotifyConfig configures where failures are surfaced besides the log.
type NotifyConfig struct {
	NATS NATSConfig `yaml:"nats"`
}

// NATSConfig publishes failure notifications to a NATS subject when URL is set.
type NATSConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// HistoryConfig enables the sqlite cycle history when Path is set.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Path resolves a project relative path against Root.
func (c *Config) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Root, rel)
}

// Load reads, expands, defaults and validates the config at configPath.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(filepath.Dir(configPath))

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				WithCause(err).
				Build()
		}
		return nil, ferrors.ConfigError("failed to read config file").WithCause(err).Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	if cfg.Root == "" {
		cfg.Root = filepath.Dir(configPath)
	} else if !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(filepath.Dir(configPath), cfg.Root)
	}
	if abs, err := filepath.Abs(cfg.Root); err == nil {
		cfg.Root = abs
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML and applies defaults without validating.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, ferrors.ConfigError("failed to unmarshal config").WithCause(err).Build()
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a fully defaulted config rooted at root.
func Default(root string) *Config {
	cfg := &Config{Root: root}
	applyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Default("")
	example.Root = ""
	example.Templates.Data = map[string]any{"title": "My Site"}
	example.Notify.NATS = NATSConfig{}

	data, err := yaml.Marshal(example)
	if err != nil {
		return ferrors.InternalError("failed to marshal example config").WithCause(err).Build()
	}
	header := "# devflow configuration\n# Paths are relative to this file unless root is set.\n"
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o644); err != nil {
		return ferrors.FileSystemError("failed to write config file").
			WithContext("path", configPath).
			WithCause(err).
			Build()
	}
	return nil
}
