package devserver

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/devflow/internal/assets"
	"git.home.luguber.info/inful/devflow/internal/config"
)

func TestRouterRoutesByGlob(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default(root)
	cfg.Images.Enabled = true
	r := NewRouter(cfg)

	cases := map[string]string{
		"templates/index.tmpl":        assets.TaskTemplates,
		"templates/blog/_layout.tmpl": assets.TaskTemplates,
		"templates/blog/post.md":      assets.TaskTemplates,
		"sass/application.sass":       assets.TaskStyles,
		"sass/partials/_grid.scss":    assets.TaskStyles,
		"img/logo.png":                assets.TaskImages,
		"js/app.js":                   assets.TaskScripts,
		"js/vendor/lib.js":            assets.TaskScripts,
		"js/notes.txt":                "",
		"index.html":                  "",
		"css/application.css":         "",
		"node_modules/x/index.js":     "",
		"../outside/index.tmpl":       "",
	}
	for p, want := range cases {
		assert.Equal(t, want, r.Route(p), p)
	}

	assert.Equal(t, assets.TaskTemplates, r.Route(filepath.Join(root, "templates", "index.tmpl")))
}

func TestRouterSkipsDisabledTasks(t *testing.T) {
	cfg := config.Default(t.TempDir())
	off := false
	cfg.Styles.Enabled = &off
	r := NewRouter(cfg)
	assert.Empty(t, r.Route("sass/application.sass"))
	assert.Empty(t, r.Route("img/logo.png"))
}

func TestRouterTemplatesAtRoot(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Templates.BaseDir = "."
	r := NewRouter(cfg)
	assert.Equal(t, assets.TaskTemplates, r.Route("index.tmpl"))
	assert.Equal(t, assets.TaskStyles, r.Route("sass/application.sass"))
}

func TestRouterSkippedDirs(t *testing.T) {
	root := t.TempDir()
	r := NewRouter(config.Default(root))
	assert.True(t, r.Skipped(filepath.Join(root, "node_modules")))
	assert.False(t, r.Skipped(filepath.Join(root, "templates")))
	assert.False(t, r.Skipped(root))
}
