// Package metrics exposes Prometheus collectors for the inspection workflow.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "housecheck"

// Result label values.
const (
	ResultSaved            = "saved"
	ResultSkipped          = "skipped"
	ResultFailed           = "failed"
	ResultOK               = "ok"
	ResultCompleted        = "completed"
	ResultUnmet            = "unmet"
	ResultAlreadyCompleted = "already_completed"
)

type Metrics struct {
	autosaveTicks  *prometheus.CounterVec
	backupWrites   *prometheus.CounterVec
	activityWrites *prometheus.CounterVec
	completions    *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which tests use to avoid global state.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		autosaveTicks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autosave_ticks_total",
			Help:      "Autosave ticks by result (saved, skipped, failed).",
		}, []string{"result"}),
		backupWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backup_writes_total",
			Help:      "Local backup writes by result.",
		}, []string{"result"}),
		activityWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_writes_total",
			Help:      "Activity log appends by result.",
		}, []string{"result"}),
		completions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_completions_total",
			Help:      "Completion attempts by result (completed, unmet, already_completed).",
		}, []string{"result"}),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory with a running autosave loop.",
		}),
	}
}

func (m *Metrics) ObserveAutosave(result string) {
	if m == nil {
		return
	}
	m.autosaveTicks.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveBackup(result string) {
	if m == nil {
		return
	}
	m.backupWrites.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveActivity(result string) {
	if m == nil {
		return
	}
	m.activityWrites.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveCompletion(result string) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(result).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
