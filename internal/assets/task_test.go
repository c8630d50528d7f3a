package assets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/devflow/internal/foundation/errors"
	"git.home.luguber.info/inful/devflow/internal/metrics"
	"git.home.luguber.info/inful/devflow/internal/notify"
)

type countingRecorder struct {
	metrics.NoopRecorder
	mu      sync.Mutex
	results map[string]int
}

func (c *countingRecorder) IncTaskResult(task string, result metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = map[string]int{}
	}
	c.results[task+":"+string(result)]++
}

func TestRunnerSuccess(t *testing.T) {
	rec := &countingRecorder{}
	var notified []notify.Message
	r := NewRunner(rec, notify.Func(func(_ context.Context, m notify.Message) { notified = append(notified, m) }))

	require.NoError(t, r.Run(context.Background(), TaskStyles, func(context.Context) error { return nil }))
	assert.Equal(t, 1, rec.results["styles:success"])
	assert.Empty(t, notified)
}

func TestRunnerFailureNotifiesAndClassifies(t *testing.T) {
	rec := &countingRecorder{}
	var notified []notify.Message
	r := NewRunner(rec, notify.Func(func(_ context.Context, m notify.Message) { notified = append(notified, m) }))

	err := r.Run(context.Background(), TaskStyles, func(context.Context) error { return errors.New("sass exploded") })
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryTask))
	assert.Equal(t, 1, rec.results["styles:failed"])
	require.Len(t, notified, 1)
	assert.Equal(t, "styles", notified[0].Task)
	assert.Equal(t, "sass exploded", notified[0].Body)
}

func TestRunnerKeepsClassifiedErrors(t *testing.T) {
	r := NewRunner(nil, nil)
	orig := ferrors.FileSystemError("disk full").Build()
	err := r.Run(context.Background(), TaskClean, func(context.Context) error { return orig })
	assert.Same(t, orig, err)
}

func TestRunnerSkipsNotifyForReportedFailures(t *testing.T) {
	var notified int
	r := NewRunner(nil, notify.Func(func(context.Context, notify.Message) { notified++ }))

	err := r.Run(context.Background(), TaskTemplates, func(context.Context) error {
		return fmt.Errorf("2 documents failed: %w", ErrReported)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReported)
	assert.Zero(t, notified)
}
