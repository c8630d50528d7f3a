package devserver

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/devflow/internal/assets"
	"git.home.luguber.info/inful/devflow/internal/build"
	"git.home.luguber.info/inful/devflow/internal/util/sets"
)

// taskOrder is the order tasks of one batch run in.
var taskOrder = []string{assets.TaskTemplates, assets.TaskStyles, assets.TaskImages, assets.TaskScripts}

// taskQueue debounces task requests into batches for the single worker.
// Requests arriving while a batch runs accumulate in pending and are picked
// up as one follow-up batch.
type taskQueue struct {
	mu      sync.Mutex
	window  time.Duration
	timer   *time.Timer
	pending sets.Set[string]
	trigger build.Trigger
	stopped bool
	wake    chan struct{}
}

func newTaskQueue(window time.Duration) *taskQueue {
	return &taskQueue{window: window, pending: sets.New[string](), wake: make(chan struct{}, 1)}
}

// Request adds tasks and restarts the debounce window.
func (q *taskQueue) Request(trigger build.Trigger, tasks ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped || !q.add(trigger, tasks) {
		return
	}
	if q.timer != nil {
		q.timer.Stop()
	}
	q.timer = time.AfterFunc(q.window, q.signal)
}

// RequestNow adds tasks and wakes the worker without debouncing.
func (q *taskQueue) RequestNow(trigger build.Trigger, tasks ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped || !q.add(trigger, tasks) {
		return
	}
	q.signal()
}

func (q *taskQueue) add(trigger build.Trigger, tasks []string) bool {
	if len(tasks) == 0 {
		return false
	}
	for _, t := range tasks {
		q.pending.Add(t)
	}
	// A watch trigger wins over a rescan merged into the same batch.
	if q.trigger == "" || trigger != build.TriggerRescan {
		q.trigger = trigger
	}
	return true
}

func (q *taskQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// take removes and returns the pending batch in run order.
func (q *taskQueue) take() ([]string, build.Trigger) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []string
	for _, t := range taskOrder {
		if q.pending.Has(t) {
			out = append(out, t)
		}
	}
	trigger := q.trigger
	q.pending = sets.New[string]()
	q.trigger = ""
	return out, trigger
}

func (q *taskQueue) stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopped = true
	if q.timer != nil {
		q.timer.Stop()
	}
}
