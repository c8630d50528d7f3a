package devserver

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"git.home.luguber.info/inful/devflow/internal/metrics"
)

// Reload kinds sent to browsers.
const (
	// ReloadPage reloads the whole page.
	ReloadPage = "reload"
	// ReloadCSS swaps stylesheets without reloading.
	ReloadCSS = "css"
	// ReloadError reloads the page so it shows the failure overlay.
	ReloadError = "error"
)

// Paths served by the live reload endpoints.
const (
	LiveReloadPath       = "/__devflow/livereload"
	LiveReloadScriptPath = "/__devflow/livereload.js"
)

type reloadEvent struct {
	Hash string `json:"hash"`
	Kind string `json:"kind"`
}

// LiveReloadHub manages SSE clients and broadcasts reload events to them.
type LiveReloadHub struct {
	mu       sync.RWMutex
	nextID   int
	clients  map[int]*lrClient
	recorder metrics.Recorder
	closed   bool
	last     reloadEvent
}

type lrClient struct {
	id   int
	ch   chan reloadEvent
	done chan struct{}
}

func NewLiveReloadHub(rec metrics.Recorder) *LiveReloadHub {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &LiveReloadHub{clients: map[int]*lrClient{}, recorder: rec}
}

// ServeHTTP implements the SSE endpoint.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	client, current, ok := h.addClient()
	if !ok {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// The first event is the client's baseline and never triggers a reload.
	if current.Hash == "" {
		current = reloadEvent{Hash: "0", Kind: ReloadPage}
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		slog.Debug("livereload write", "error", err)
		h.removeClient(client.id)
		return
	}
	if err := writeEvent(bw, current); err != nil {
		slog.Debug("livereload write", "error", err)
		h.removeClient(client.id)
		return
	}
	if err := bw.Flush(); err == nil {
		flusher.Flush()
	}

	hb := time.NewTicker(30 * time.Second)
	defer hb.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.removeClient(client.id)
			return
		case <-client.done:
			return
		case <-hb.C:
			if _, err := bw.WriteString(": ping\n\n"); err == nil {
				_ = bw.Flush()
				flusher.Flush()
			}
		case ev := <-client.ch:
			if err := writeEvent(bw, ev); err == nil {
				_ = bw.Flush()
				flusher.Flush()
			} else {
				slog.Debug("livereload broadcast write", "error", err)
			}
		}
	}
}

// addClient registers a client unless the hub is shut down. The closed check
// and registration share one lock so Shutdown sees every client.
func (h *LiveReloadHub) addClient() (*lrClient, reloadEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, reloadEvent{}, false
	}
	client := &lrClient{id: h.nextID, ch: make(chan reloadEvent, 8), done: make(chan struct{})}
	h.nextID++
	h.clients[client.id] = client
	return client, h.last, true
}

func writeEvent(bw *bufio.Writer, ev reloadEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = bw.WriteString("data: " + string(data) + "\n\n")
	return err
}

func (h *LiveReloadHub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// Clients returns the number of connected browsers.
func (h *LiveReloadHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a reload of kind to every client. Clients whose buffers are
// full are dropped; they reconnect on their own.
func (h *LiveReloadHub) Broadcast(kind string) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	ev := reloadEvent{Hash: strconv.FormatInt(time.Now().UnixNano(), 10), Kind: kind}
	h.last = ev
	snapshot := make([]*lrClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- ev:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	h.recorder.IncLiveReload(kind)
	slog.Debug("livereload broadcast", "kind", kind, "clients", len(snapshot), "dropped", dropped)
}

// Shutdown closes all clients and prevents future broadcasts.
func (h *LiveReloadHub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*lrClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
}

// LiveReloadScript is the browser client served at LiveReloadScriptPath.
const LiveReloadScript = `(() => {
  if (window.__DEVFLOW_LR__) return;
  window.__DEVFLOW_LR__ = true;
  function swapStyles(hash) {
    document.querySelectorAll('link[rel="stylesheet"]').forEach((l) => {
      const u = new URL(l.href, location.href);
      if (u.origin !== location.origin) return;
      u.searchParams.set('__devflow', hash);
      l.href = u.toString();
    });
  }
  function connect() {
    const es = new EventSource('` + LiveReloadPath + `');
    let current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (current === null) { current = p.hash; return; }
        if (!p.hash || p.hash === current) return;
        current = p.hash;
        if (p.kind === 'css' && !document.getElementById('__devflow_overlay')) { swapStyles(p.hash); return; }
        console.log('[devflow] change detected, reloading');
        location.reload();
      } catch (_) {}
    };
    es.onerror = () => { console.warn('[devflow] livereload error - retrying'); es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();
`
