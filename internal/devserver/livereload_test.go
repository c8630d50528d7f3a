package devserver

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/devflow/internal/metrics"
)

type countingReloads struct {
	metrics.NoopRecorder
	kinds []string
}

func (c *countingReloads) IncLiveReload(kind string) { c.kinds = append(c.kinds, kind) }

func connect(t *testing.T, url string) *bufio.Reader {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return bufio.NewReader(resp.Body)
}

func readEvent(t *testing.T, r *bufio.Reader) reloadEvent {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var ev reloadEvent
			require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(data)), &ev))
			return ev
		}
	}
}

func TestLiveReloadBaselineOnConnect(t *testing.T) {
	hub := NewLiveReloadHub(nil)
	defer hub.Shutdown()
	server := httptest.NewServer(hub)
	defer server.Close()

	ev := readEvent(t, connect(t, server.URL))
	assert.Equal(t, "0", ev.Hash)
}

func TestLiveReloadBaselineIsLastBroadcast(t *testing.T) {
	hub := NewLiveReloadHub(nil)
	defer hub.Shutdown()
	hub.Broadcast(ReloadCSS)
	server := httptest.NewServer(hub)
	defer server.Close()

	ev := readEvent(t, connect(t, server.URL))
	assert.NotEqual(t, "0", ev.Hash)
	assert.Equal(t, ReloadCSS, ev.Kind)
}

func TestLiveReloadBroadcastReachesClient(t *testing.T) {
	rec := &countingReloads{}
	hub := NewLiveReloadHub(rec)
	defer hub.Shutdown()
	server := httptest.NewServer(hub)
	defer server.Close()

	r := connect(t, server.URL)
	baseline := readEvent(t, r)
	assert.Equal(t, 1, hub.Clients())

	hub.Broadcast(ReloadPage)
	ev := readEvent(t, r)
	assert.Equal(t, ReloadPage, ev.Kind)
	assert.NotEqual(t, baseline.Hash, ev.Hash)
	assert.Equal(t, []string{ReloadPage}, rec.kinds)
}

func TestLiveReloadShutdownRejectsClients(t *testing.T) {
	hub := NewLiveReloadHub(nil)
	hub.Shutdown()
	hub.Broadcast(ReloadPage)

	rr := httptest.NewRecorder()
	hub.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, LiveReloadPath, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestLiveReloadShutdownEndsConnectingClients(t *testing.T) {
	hub := NewLiveReloadHub(nil)
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, LiveReloadPath, nil))
		}()
	}
	hub.Shutdown()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handlers still running after shutdown")
	}
	assert.Zero(t, hub.Clients())
}
