package incremental

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/devflow/internal/docs"
)

func rules() docs.Rules {
	return docs.Rules{Extension: ".tmpl", Sources: []string{".md"}, Fragments: []string{"**/_*", "**/_*/**"}}
}

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func TestDetectFirstPassReportsEverything(t *testing.T) {
	root := t.TempDir()
	write(t, root, "index.tmpl", "a")
	write(t, root, "_layout.tmpl", "b")
	write(t, root, "notes.md", "c")

	d := NewDetector(rules(), nil)
	cs, err := d.Detect(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"_layout.tmpl", "index.tmpl", "notes.md"}, cs.Changed)
	assert.Empty(t, cs.Removed)
	assert.Len(t, d.State(), 3)
	assert.Equal(t, docs.Fingerprint([]byte("a")), d.State()["index.tmpl"])
}

func TestDetectIsIdempotent(t *testing.T) {
	root := t.TempDir()
	write(t, root, "index.tmpl", "a")

	d := NewDetector(rules(), nil)
	_, err := d.Detect(context.Background(), root)
	require.NoError(t, err)

	cs, err := d.Detect(context.Background(), root)
	require.NoError(t, err)
	assert.True(t, cs.Empty())
	assert.Empty(t, cs.Changed)
}

func TestDetectEditAddRemove(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.tmpl", "a")
	write(t, root, "b.tmpl", "b")

	state := State{}
	d := NewDetector(rules(), state)
	_, err := d.Detect(context.Background(), root)
	require.NoError(t, err)

	write(t, root, "a.tmpl", "a2")
	write(t, root, "c.tmpl", "c")
	require.NoError(t, os.Remove(filepath.Join(root, "b.tmpl")))

	cs, err := d.Detect(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.tmpl", "c.tmpl"}, cs.Changed)
	assert.Equal(t, []string{"b.tmpl"}, cs.Removed)
	assert.Equal(t, []string{"a.tmpl", "c.tmpl", "b.tmpl"}, cs.Starts())

	_, recorded := state["b.tmpl"]
	assert.False(t, recorded, "removed documents leave the caller's state")
	assert.Equal(t, docs.Fingerprint([]byte("a2")), state["a.tmpl"])
}

func TestDetectSameContentRewriteIsNotAChange(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.tmpl", "same")

	d := NewDetector(rules(), nil)
	_, err := d.Detect(context.Background(), root)
	require.NoError(t, err)

	write(t, root, "a.tmpl", "same")
	cs, err := d.Detect(context.Background(), root)
	require.NoError(t, err)
	assert.True(t, cs.Empty())
}

func TestDetectResetAndClone(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.tmpl", "a")

	d := NewDetector(rules(), nil)
	_, err := d.Detect(context.Background(), root)
	require.NoError(t, err)

	snapshot := d.State().Clone()
	d.Reset()
	assert.Empty(t, d.State())
	assert.Len(t, snapshot, 1)

	cs, err := d.Detect(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.tmpl"}, cs.Changed)
}

func TestDetectMissingRoot(t *testing.T) {
	d := NewDetector(rules(), nil)
	_, err := d.Detect(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
