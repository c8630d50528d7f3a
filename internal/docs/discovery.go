package docs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	derrors "git.home.luguber.info/inful/devflow/internal/docs/errors"
	"git.home.luguber.info/inful/devflow/internal/logfields"
)

// ScanError records a file that could not be read during discovery.
type ScanError struct {
	Path string
	Err  error
}

func (e ScanError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e ScanError) Unwrap() error { return e.Err }

// Scan is the result of one discovery walk. Documents are sorted by path.
type Scan struct {
	Root       string
	Documents  []Document
	Unreadable []ScanError
}

// Paths returns the relative paths of every scanned document.
func (s *Scan) Paths() []string {
	out := make([]string, len(s.Documents))
	for i, d := range s.Documents {
		out[i] = d.Path
	}
	return out
}

// Discover walks root and reads every source document the rules select.
// Hidden files and directories are ignored. Files that cannot be read are
// reported in Unreadable instead of failing the walk.
func Discover(ctx context.Context, root string, rules Rules) (*Scan, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrTreeNotFound, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", derrors.ErrTreeNotFound, root)
	}

	scan := &Scan{Root: root}
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == root {
			return walkErr
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("%w: %w", derrors.ErrInvalidRelativePath, err)
		}
		rel = filepath.ToSlash(rel)

		if walkErr != nil {
			scan.Unreadable = append(scan.Unreadable, ScanError{Path: rel, Err: walkErr})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") || rules.IsSkipped(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !rules.IsSource(rel) {
			return nil
		}

		content, err := os.ReadFile(p)
		if err != nil {
			slog.Warn("Document unreadable", logfields.Document(rel), logfields.Error(err))
			scan.Unreadable = append(scan.Unreadable, ScanError{
				Path: rel,
				Err:  fmt.Errorf("%w: %w", derrors.ErrFileReadFailed, err),
			})
			return nil
		}

		scan.Documents = append(scan.Documents, Document{
			Path:        rel,
			Abs:         p,
			Content:     content,
			Fingerprint: Fingerprint(content),
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", derrors.ErrTreeWalkFailed, err)
	}

	sort.Slice(scan.Documents, func(i, j int) bool { return scan.Documents[i].Path < scan.Documents[j].Path })
	slog.Debug("Template tree scanned", logfields.Path(root), slog.Int("documents", len(scan.Documents)))
	return scan, nil
}
