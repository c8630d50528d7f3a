package devserver

import (
	"context"
	"html"
	"slices"
	"strings"
	"sync"

	"git.home.luguber.info/inful/devflow/internal/assets"
	"git.home.luguber.info/inful/devflow/internal/build"
	"git.home.luguber.info/inful/devflow/internal/notify"
)

type overlayKey struct {
	task     string
	document string
}

// Overlay collects the failures still outstanding and renders them as a box
// injected into served pages. It is a notify.Notifier for failures and a
// workflow.Listener for resolving them.
type Overlay struct {
	mu      sync.RWMutex
	entries map[overlayKey]notify.Message
}

func NewOverlay() *Overlay {
	return &Overlay{entries: map[overlayKey]notify.Message{}}
}

func (o *Overlay) Notify(_ context.Context, msg notify.Message) {
	if msg.Level != notify.LevelError {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries[overlayKey{msg.Task, msg.Document}] = msg
}

// TaskFinished clears the failures of a task that succeeded. Template
// failures are tracked per document by CycleFinished instead, since an
// incremental cycle does not recompile every broken page.
func (o *Overlay) TaskFinished(task string, err error) {
	if err != nil || task == assets.TaskTemplates {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for k := range o.entries {
		if k.task == task {
			delete(o.entries, k)
		}
	}
}

func (o *Overlay) CycleFinished(report *build.CycleReport) {
	if report == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if report.Err == nil {
		delete(o.entries, overlayKey{assets.TaskTemplates, ""})
	}
	for _, r := range report.Results {
		if r.OK() {
			delete(o.entries, overlayKey{assets.TaskTemplates, r.Path})
		}
	}
	if report.Changes != nil {
		for _, rel := range report.Changes.Removed {
			delete(o.entries, overlayKey{assets.TaskTemplates, rel})
		}
	}
}

// Failures returns the outstanding failures ordered by task and document.
func (o *Overlay) Failures() []notify.Message {
	o.mu.RLock()
	out := make([]notify.Message, 0, len(o.entries))
	for _, m := range o.entries {
		out = append(out, m)
	}
	o.mu.RUnlock()
	slices.SortFunc(out, func(a, b notify.Message) int {
		if c := strings.Compare(a.Task, b.Task); c != 0 {
			return c
		}
		return strings.Compare(a.Document, b.Document)
	})
	return out
}

// HTML renders the overlay box, or "" when nothing is failing.
func (o *Overlay) HTML() string {
	failures := o.Failures()
	if len(failures) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<div id="__devflow_overlay" style="position:fixed;top:0;left:0;right:0;z-index:2147483647;max-height:50vh;overflow:auto;` +
		`background:#1d1f21;color:#f8f8f2;font:13px/1.5 monospace;padding:12px 16px;border-bottom:3px solid #e74c3c">`)
	b.WriteString(`<button onclick="this.parentNode.remove()" style="float:right;background:none;border:0;color:inherit;cursor:pointer">&times;</button>`)
	for _, m := range failures {
		b.WriteString(`<div style="margin:4px 0"><strong style="color:#e74c3c">`)
		b.WriteString(html.EscapeString(m.Title))
		b.WriteString(`</strong><pre style="margin:2px 0 0;white-space:pre-wrap">`)
		b.WriteString(html.EscapeString(m.Body))
		b.WriteString(`</pre></div>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}
