package eventstore

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCycleID = "cycle-123"

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEventStoreAppendAndRetrieve(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()
	payload := []byte(`{"test": "data"}`)

	require.NoError(t, store.Append(ctx, testCycleID, "TestEvent", payload, map[string]string{"key": "value"}))

	events, err := store.GetByCycleID(ctx, testCycleID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, testCycleID, event.CycleID())
	assert.Equal(t, "TestEvent", event.Type())
	assert.True(t, bytes.Equal(payload, event.Payload()))
	assert.Equal(t, "value", event.Metadata()["key"])
	assert.WithinDuration(t, time.Now(), event.Timestamp(), 5*time.Second)
	assert.Positive(t, event.ID())
}

func TestEventStoreNilMetadataAndPayload(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	require.NoError(t, store.Append(ctx, testCycleID, "Empty", nil, nil))
	events, err := store.GetByCycleID(ctx, testCycleID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].Metadata())
	assert.Empty(t, events[0].Payload())
}

func TestEventStoreGetRange(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	require.NoError(t, store.Append(ctx, "a", "E", []byte("1"), nil))
	require.NoError(t, store.Append(ctx, "b", "E", []byte("2"), nil))

	events, err := store.GetRange(ctx, time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = store.GetRange(ctx, time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventStoreRecentNewestFirst(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	for _, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, store.Append(ctx, id, EventCycleCompleted, []byte("{}"), nil))
	}
	require.NoError(t, store.Append(ctx, "other", "Other", []byte("{}"), nil))

	events, err := store.Recent(ctx, EventCycleCompleted, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "c3", events[0].CycleID())
	assert.Equal(t, "c2", events[1].CycleID())
}

func TestEventStorePersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := t.Context()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, testCycleID, "E", []byte("x"), nil))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	events, err := reopened.GetByCycleID(ctx, testCycleID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestEventStoreClosedQueryFails(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.GetByCycleID(t.Context(), testCycleID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEventQueryFailed))
}
