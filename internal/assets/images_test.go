package assets

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/devflow/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestImagesCopiesChangedOnly(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default(root)
	cfg.Images.OutputDir = "public/img"
	writeFile(t, filepath.Join(root, "img", "logo.png"), "PNGDATA")
	writeFile(t, filepath.Join(root, "img", "icons", "a.svg"), "<svg/>")

	task := NewImages(cfg)
	assert.False(t, task.InPlace())

	report, err := task.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.FileExists(t, filepath.Join(root, "public", "img", "icons", "a.svg"))
	before, after := report.Totals()
	assert.Equal(t, int64(13), before)
	assert.Equal(t, before, after)

	report, err = task.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Results)

	require.NoError(t, os.Remove(filepath.Join(root, "img", "logo.png")))
	report, err = task.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"logo.png"}, report.Removed)
	assert.NoFileExists(t, filepath.Join(root, "public", "img", "logo.png"))
}

func TestImagesOptimizerInPlace(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	root := t.TempDir()
	cfg := config.Default(root)
	// Truncates each file to two bytes.
	cfg.Images.Optimizer = []string{"sh", "-c", "head -c 2 \"$0\" > \"$0.tmp\" && mv \"$0.tmp\" \"$0\"", "{file}"}
	writeFile(t, filepath.Join(root, "img", "big.jpg"), "0123456789")

	task := NewImages(cfg)
	assert.True(t, task.InPlace())

	report, err := task.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, int64(10), report.Results[0].Before)
	assert.Equal(t, int64(2), report.Results[0].After)
	assert.Equal(t, int64(8), report.Results[0].Saved())

	report, err = task.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Results, "optimized output is not reprocessed")
}

func TestImagesOptimizerFailure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	root := t.TempDir()
	cfg := config.Default(root)
	cfg.Images.Optimizer = []string{"false"}
	writeFile(t, filepath.Join(root, "img", "a.png"), "x")

	report, err := NewImages(cfg).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOptimizerFailed)
	assert.Len(t, report.Failed(), 1)
}

func TestImagesMissingSourceDir(t *testing.T) {
	report, err := NewImages(config.Default(t.TempDir())).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Results)
}
