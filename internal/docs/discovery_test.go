package docs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/devflow/internal/docs/errors"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return root
}

func TestDiscoverSelectsSources(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.tmpl":                 "<p>home</p>",
		"_layout.tmpl":               "<html></html>",
		"blog/post.tmpl":             "post",
		"blog/intro.md":              "# Intro",
		"css/site.css":               "body{}",
		".hidden.tmpl":               "x",
		".git/config.tmpl":           "x",
		"node_modules/pkg/page.tmpl": "x",
	})

	scan, err := Discover(context.Background(), root, templateRules())
	require.NoError(t, err)
	assert.Empty(t, scan.Unreadable)
	assert.Equal(t, []string{"_layout.tmpl", "blog/intro.md", "blog/post.tmpl", "index.tmpl"}, scan.Paths())

	for _, d := range scan.Documents {
		assert.Equal(t, Fingerprint(d.Content), d.Fingerprint)
		assert.Equal(t, filepath.Join(root, filepath.FromSlash(d.Path)), d.Abs)
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := Discover(context.Background(), filepath.Join(t.TempDir(), "nope"), templateRules())
	require.Error(t, err)
	assert.True(t, errors.Is(err, derrors.ErrTreeNotFound))
}

func TestDiscoverReportsUnreadable(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("file permissions not enforced")
	}
	root := writeTree(t, map[string]string{
		"ok.tmpl":     "ok",
		"locked.tmpl": "secret",
	})
	locked := filepath.Join(root, "locked.tmpl")
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o600) })

	scan, err := Discover(context.Background(), root, templateRules())
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.tmpl"}, scan.Paths())
	require.Len(t, scan.Unreadable, 1)
	assert.Equal(t, "locked.tmpl", scan.Unreadable[0].Path)
	assert.True(t, errors.Is(scan.Unreadable[0], derrors.ErrFileReadFailed))
}

func TestDiscoverCanceled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.tmpl": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Discover(ctx, root, templateRules())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("hello"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, Fingerprint([]byte("hello")))
	assert.NotEqual(t, a, Fingerprint([]byte("hello!")))
}
