package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "outage_alert"

// Metrics holds the Prometheus counters, histograms, and gauges for task runs.
type Metrics struct {
	TaskRuns        *prometheus.CounterVec   // labels: kind, outcome={success,failed,skipped}
	TaskDuration    *prometheus.HistogramVec // labels: kind
	LastSuccess     prometheus.Gauge
	SchedulerActive prometheus.Gauge

	// Source metrics.
	FetchDuration  prometheus.Histogram
	StepFailures   *prometheus.CounterVec // labels: step
	RowParseErrors prometheus.Counter

	// Deduplication metrics.
	OutagesParsed   prometheus.Counter
	OutagesNew      prometheus.Counter
	OutagesExisting prometheus.Counter
	OutagesPending  prometheus.Gauge

	// Notification metrics.
	NotificationsSent prometheus.Counter
	DispatchErrors    prometheus.Counter
	SendDuration      prometheus.Histogram

	// Event stream metrics.
	OutagesPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		TaskRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_runs_total",
			Help:      "Task kind executions by outcome.",
		}, []string{"kind", "outcome"}),
		TaskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of one task kind execution.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"kind"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last task run that completed every step.",
		}),
		SchedulerActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      "1 when the scheduler loop is active, 0 when shut down.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Outage source fetch duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		StepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_failures_total",
			Help:      "Run-fatal failures by the step that raised them.",
		}, []string{"step"}),
		RowParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "row_parse_errors_total",
			Help:      "Malformed source rows skipped by the parser.",
		}),
		OutagesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outages_parsed_total",
			Help:      "Outage rows extracted from the source.",
		}),
		OutagesNew: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outages_new_total",
			Help:      "Outages stored for the first time.",
		}),
		OutagesExisting: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outages_existing_total",
			Help:      "Parsed outages whose content hash was already stored.",
		}),
		OutagesPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outages_pending",
			Help:      "Unnotified outages seen by the last run.",
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Digests accepted by the transport.",
		}),
		DispatchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_errors_total",
			Help:      "Digests rejected by the transport.",
		}),
		SendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "send_duration_seconds",
			Help:      "Transport call duration per group.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		OutagesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outages_published_total",
			Help:      "New outages written to the event stream.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed event stream writes.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.TaskRuns,
		m.TaskDuration,
		m.LastSuccess,
		m.SchedulerActive,
		m.FetchDuration,
		m.StepFailures,
		m.RowParseErrors,
		m.OutagesParsed,
		m.OutagesNew,
		m.OutagesExisting,
		m.OutagesPending,
		m.NotificationsSent,
		m.DispatchErrors,
		m.SendDuration,
		m.OutagesPublished,
		m.PublishErrors,
	}
}
