package devserver

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"

	"git.home.luguber.info/inful/devflow/internal/assets"
	"git.home.luguber.info/inful/devflow/internal/config"
)

type route struct {
	task     string
	patterns []string
}

// Router maps changed paths, relative to the project root, to the tasks
// that must run for them.
type Router struct {
	root   string
	routes []route
	skip   []string
}

// NewRouter builds the routing table from cfg. Template changes are matched
// by living under the template base directory.
func NewRouter(cfg *config.Config) *Router {
	base := path.Clean(filepath.ToSlash(cfg.Templates.BaseDir))
	templates := []string{base + "/**"}
	if base == "." {
		templates = []string{"**"}
	}

	skip := make([]string, 0, len(cfg.Templates.Skip))
	for _, s := range cfg.Templates.Skip {
		skip = append(skip, s, "**/"+s)
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		root = cfg.Root
	}
	r := &Router{root: root, skip: skip}
	if cfg.Styles.IsEnabled() {
		r.routes = append(r.routes, route{assets.TaskStyles, cfg.Styles.Watch})
	}
	if cfg.Images.Enabled {
		r.routes = append(r.routes, route{assets.TaskImages, cfg.Images.Watch})
	}
	r.routes = append(r.routes,
		route{assets.TaskScripts, cfg.Scripts.Watch},
		route{assets.TaskTemplates, templates},
	)
	return r
}

// Route returns the task for an absolute or root relative path, or "" when
// the path belongs to no task. The first matching route wins.
func (r *Router) Route(p string) string {
	rel, ok := r.relative(p)
	if !ok {
		return ""
	}
	if matchAny(r.skip, rel) {
		return ""
	}
	for _, rt := range r.routes {
		if matchAny(rt.patterns, rel) {
			return rt.task
		}
	}
	return ""
}

// Skipped reports whether a directory should not be watched at all.
func (r *Router) Skipped(dir string) bool {
	rel, ok := r.relative(dir)
	if !ok || rel == "." {
		return false
	}
	return matchAny(r.skip, rel) || matchAny(r.skip, rel+"/_")
}

func (r *Router) relative(p string) (string, bool) {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(r.root, p)
		if err != nil {
			return "", false
		}
		p = rel
	}
	rel := filepath.ToSlash(filepath.Clean(p))
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}
