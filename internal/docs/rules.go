package docs

import (
	"path"
	"slices"

	"github.com/bmatcuk/doublestar"

	"git.home.luguber.info/inful/devflow/internal/config"
)

// Rules decide which files of a tree are scanned and how they are treated.
// An empty Extension with no Sources scans every file.
type Rules struct {
	Extension string
	Sources   []string
	Fragments []string
	Skip      []string
}

// RulesFromConfig builds the template tree rules.
func RulesFromConfig(t config.TemplatesConfig) Rules {
	return Rules{
		Extension: t.Extension,
		Sources:   slices.Clone(t.Sources),
		Fragments: slices.Clone(t.Fragments),
		Skip:      slices.Clone(t.Skip),
	}
}

// IsSource reports whether rel takes part in change detection and the graph.
func (r Rules) IsSource(rel string) bool {
	if r.Extension == "" && len(r.Sources) == 0 {
		return true
	}
	ext := path.Ext(rel)
	return ext == r.Extension || slices.Contains(r.Sources, ext)
}

// IsFragment reports whether rel is an include-only partial.
func (r Rules) IsFragment(rel string) bool {
	return matchAny(r.Fragments, rel)
}

// IsCompilable reports whether rel is a page compiled to its own output.
func (r Rules) IsCompilable(rel string) bool {
	return r.Extension != "" && path.Ext(rel) == r.Extension && !r.IsFragment(rel)
}

// IsSkipped reports whether rel is excluded from scanning. Directories also
// match patterns that cover their contents ("node_modules/**").
func (r Rules) IsSkipped(rel string, dir bool) bool {
	if matchAny(r.Skip, rel) {
		return true
	}
	return dir && matchAny(r.Skip, rel+"/_")
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}
