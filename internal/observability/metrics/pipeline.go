package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

// PipelineMetrics implements the pipeline's run observer on a private
// Prometheus registry.
type PipelineMetrics struct {
	registry *prometheus.Registry
	service  string

	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	runsInFlight prometheus.Gauge
	stepDuration *prometheus.HistogramVec
	stepFailures *prometheus.CounterVec
	decisions    *prometheus.CounterVec
	queueLag     *prometheus.HistogramVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docproc",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total pipeline runs by final status.",
		},
		[]string{"service", "status"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docproc",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Full pipeline run duration in seconds by final status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	runsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docproc",
			Subsystem: "pipeline",
			Name:      "runs_in_flight",
			Help:      "Number of pipeline runs currently executing.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	stepDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docproc",
			Subsystem: "pipeline",
			Name:      "step_duration_seconds",
			Help:      "Per-step execution duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"service", "step"},
	)
	stepFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docproc",
			Subsystem: "pipeline",
			Name:      "step_failures_total",
			Help:      "Total failed step executions after retries.",
		},
		[]string{"service", "step"},
	)
	decisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docproc",
			Subsystem: "routing",
			Name:      "decisions_total",
			Help:      "Total routing decisions by outcome.",
		},
		[]string{"service", "decision"},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docproc",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between document upload and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(runsTotal, runDuration, runsInFlight, stepDuration, stepFailures, decisions, queueLag)

	return &PipelineMetrics{
		registry:     registry,
		service:      service,
		runsTotal:    runsTotal,
		runDuration:  runDuration,
		runsInFlight: runsInFlight,
		stepDuration: stepDuration,
		stepFailures: stepFailures,
		decisions:    decisions,
		queueLag:     queueLag,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) RunStarted() {
	m.runsInFlight.Inc()
}

func (m *PipelineMetrics) RunFinished(status domain.PipelineStatus, duration time.Duration) {
	m.runsInFlight.Dec()
	m.runsTotal.WithLabelValues(m.service, string(status)).Inc()
	m.runDuration.WithLabelValues(m.service, string(status)).Observe(duration.Seconds())
}

func (m *PipelineMetrics) StepFinished(step domain.StepID, success bool, duration time.Duration) {
	m.stepDuration.WithLabelValues(m.service, string(step)).Observe(duration.Seconds())
	if !success {
		m.stepFailures.WithLabelValues(m.service, string(step)).Inc()
	}
}

func (m *PipelineMetrics) DecisionMade(decision domain.RoutingDecision) {
	m.decisions.WithLabelValues(m.service, string(decision)).Inc()
}

func (m *PipelineMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(m.service).Observe(lag.Seconds())
}
