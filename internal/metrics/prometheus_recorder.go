package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "devflow"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	cycleDuration prom.Histogram
	cycleOutcome  *prom.CounterVec
	changes       *prom.CounterVec
	documents     *prom.CounterVec
	taskDuration  *prom.HistogramVec
	taskResults   *prom.CounterVec
	liveReloads   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg. A nil
// registry gets a private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		cycleDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of incremental template cycles",
			Buckets:   prom.DefBuckets,
		}),
		cycleOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_outcomes_total",
			Help:      "Template cycles by outcome",
		}, []string{"outcome"}),
		changes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "changes_detected_total",
			Help:      "Documents detected as changed or removed",
		}, []string{"kind"}),
		documents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "documents_compiled_total",
			Help:      "Compiled documents by result",
		}, []string{"result"}),
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of workflow tasks",
			Buckets:   prom.DefBuckets,
		}, []string{"task"}),
		taskResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "task_results_total",
			Help:      "Workflow task runs by result",
		}, []string{"task", "result"}),
		liveReloads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "livereload_broadcasts_total",
			Help:      "Live reload broadcasts by kind",
		}, []string{"kind"}),
	}
	reg.MustRegister(pr.cycleDuration, pr.cycleOutcome, pr.changes, pr.documents, pr.taskDuration, pr.taskResults, pr.liveReloads)
	return pr
}

func (p *PrometheusRecorder) ObserveCycleDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.cycleDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCycleOutcome(outcome CycleOutcome) {
	if p == nil {
		return
	}
	p.cycleOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddChanges(changed, removed int) {
	if p == nil {
		return
	}
	p.changes.WithLabelValues("changed").Add(float64(changed))
	p.changes.WithLabelValues("removed").Add(float64(removed))
}

func (p *PrometheusRecorder) IncDocumentResult(result ResultLabel) {
	if p == nil {
		return
	}
	p.documents.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveTaskDuration(task string, d time.Duration) {
	if p == nil {
		return
	}
	p.taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTaskResult(task string, result ResultLabel) {
	if p == nil {
		return
	}
	p.taskResults.WithLabelValues(task, string(result)).Inc()
}

func (p *PrometheusRecorder) IncLiveReload(kind string) {
	if p == nil {
		return
	}
	p.liveReloads.WithLabelValues(kind).Inc()
}
