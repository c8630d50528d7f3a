package config

// applyDefaults fills zero values with the workflow defaults. The layout mirrors
// a classic front-end project: templates/ compiled next to the project root,
// sass/ into css/, img/ optimized in place.
func applyDefaults(cfg *Config) {
	t := &cfg.Templates
	if t.BaseDir == "" {
		t.BaseDir = "templates"
	}
	if t.OutputDir == "" {
		t.OutputDir = "."
	}
	if t.Extension == "" {
		t.Extension = ".tmpl"
	}
	if t.OutputExtension == "" {
		t.OutputExtension = ".html"
	}
	if t.Sources == nil {
		t.Sources = []string{".md"}
	}
	if len(t.Fragments) == 0 {
		t.Fragments = []string{"**/_*", "**/_*/**"}
	}
	if t.Skip == nil {
		t.Skip = []string{"node_modules/**"}
	}

	if cfg.Format.IndentSize == 0 {
		cfg.Format.IndentSize = 1
	}
	if cfg.Format.IndentChar == "" {
		cfg.Format.IndentChar = "\t"
	}

	s := &cfg.Styles
	if s.Binary == "" {
		s.Binary = "sass"
	}
	if s.Entry == "" {
		s.Entry = "sass/application.sass"
	}
	if s.OutputDir == "" {
		s.OutputDir = "css"
	}
	if len(s.Watch) == 0 {
		s.Watch = []string{"sass/**/*"}
	}

	i := &cfg.Images
	if i.SourceDir == "" {
		i.SourceDir = "img"
	}
	if i.OutputDir == "" {
		i.OutputDir = i.SourceDir
	}
	if len(i.Watch) == 0 {
		i.Watch = []string{i.SourceDir + "/**/*"}
	}

	if len(cfg.Scripts.Watch) == 0 {
		cfg.Scripts.Watch = []string{"js/**/*.js"}
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.Root == "" {
		cfg.Server.Root = "."
	}

	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = "300ms"
	}

	if len(cfg.Clean.Targets) == 0 {
		cfg.Clean.Targets = []string{"css", "*.html"}
	}
	if len(cfg.Clean.Favicons) == 0 {
		cfg.Clean.Favicons = defaultFavicons()
	}

	if cfg.Notify.NATS.URL != "" && cfg.Notify.NATS.Subject == "" {
		cfg.Notify.NATS.Subject = "devflow.notifications"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = string(LogLevelInfo)
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = string(LogFormatText)
	}
}

func defaultFavicons() []string {
	return []string{
		"android-chrome-192x192.png",
		"android-chrome-512x512.png",
		"apple-touch-icon.png",
		"browserconfig.xml",
		"favicon-16x16.png",
		"favicon-32x32.png",
		"favicon.ico",
		"mstile-70x70.png",
		"mstile-144x144.png",
		"mstile-150x150.png",
		"mstile-310x150.png",
		"mstile-310x310.png",
		"safari-pinned-tab.svg",
		"site.webmanifest",
	}
}
