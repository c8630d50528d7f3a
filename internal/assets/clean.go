package assets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"

	"git.home.luguber.info/inful/devflow/internal/logfields"
)

// Clean removes every path under root matching one of patterns. Patterns
// are doublestar globs relative to root; matches outside root are refused.
// It returns the removed paths relative to root, sorted.
func Clean(root string, patterns []string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var removed []string
	for _, pattern := range patterns {
		if filepath.IsAbs(pattern) {
			return removed, fmt.Errorf("%w: %s", ErrOutsideRoot, pattern)
		}
		matches, err := doublestar.Glob(filepath.Join(absRoot, pattern))
		if err != nil {
			return removed, fmt.Errorf("clean pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			rel, err := filepath.Rel(absRoot, m)
			if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				return removed, fmt.Errorf("%w: %s", ErrOutsideRoot, m)
			}
			if seen[rel] {
				continue
			}
			seen[rel] = true
			if err := os.RemoveAll(m); err != nil {
				return removed, fmt.Errorf("remove %s: %w", rel, err)
			}
			slog.Debug("Removed", logfields.Path(rel))
			removed = append(removed, filepath.ToSlash(rel))
		}
	}
	sort.Strings(removed)
	slog.Info("Clean finished", logfields.Path(absRoot), slog.Int("removed", len(removed)))
	return removed, nil
}
