package observability

import (
	"github.com/esantoro/gaphor/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for transaction activity.
type Metrics struct {
	events    *prometheus.CounterVec
	failures  *prometheus.CounterVec
	actions   *prometheus.HistogramVec
	undoDepth *prometheus.GaugeVec
	redoDepth *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gaphor_transaction_events_total",
				Help: "Total number of transaction events by type",
			},
			[]string{"document", "event"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gaphor_action_failures_total",
				Help: "Total number of actions that failed during undo or redo",
			},
			[]string{"document", "direction"},
		),
		actions: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gaphor_transaction_actions",
				Help:    "Number of actions per committed transaction",
				Buckets: prometheus.ExponentialBuckets(1, 2, 8),
			},
			[]string{"document"},
		),
		undoDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gaphor_undo_stack_depth",
				Help: "Number of transactions on the undo stack",
			},
			[]string{"document"},
		),
		redoDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gaphor_redo_stack_depth",
				Help: "Number of transactions on the redo stack",
			},
			[]string{"document"},
		),
	}

	for _, c := range []prometheus.Collector{m.events, m.failures, m.actions, m.undoDepth, m.redoDepth} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks recording metrics for one document.
func (m *Metrics) Hooks(document string) domain.LifecycleHooks {
	record := func(ev *domain.TransactionEvent) {
		m.events.WithLabelValues(document, string(ev.Type)).Inc()
		m.undoDepth.WithLabelValues(document).Set(float64(ev.UndoDepth))
		m.redoDepth.WithLabelValues(document).Set(float64(ev.RedoDepth))
	}

	return domain.LifecycleHooks{
		OnBegin: record,
		OnCommit: func(ev *domain.TransactionEvent) {
			record(ev)
			m.actions.WithLabelValues(document).Observe(float64(ev.Actions))
		},
		OnDiscard: record,
		OnUndo:    record,
		OnRedo:    record,
		OnClear:   record,
		OnActionFailure: func(f *domain.ActionFailure) {
			m.failures.WithLabelValues(document, string(f.Direction)).Inc()
		},
	}
}

// Forget drops the series of a closed document.
func (m *Metrics) Forget(document string) {
	labels := prometheus.Labels{"document": document}
	m.events.DeletePartialMatch(labels)
	m.failures.DeletePartialMatch(labels)
	m.actions.DeletePartialMatch(labels)
	m.undoDepth.DeletePartialMatch(labels)
	m.redoDepth.DeletePartialMatch(labels)
}
