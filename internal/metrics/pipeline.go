package metrics

import "github.com/prometheus/client_golang/prometheus"

// Event outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeBlocked   = "blocked"
	OutcomePermanent = "permanent"
	OutcomeRetry     = "retry"
	OutcomePanic     = "panic"
)

// Pipeline Prometheus metrics.
var (
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecmatch",
			Name:      "events_total",
			Help:      "Inbound events by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	EventDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vecmatch",
			Name:      "event_duration_seconds",
			Help:      "Time spent handling one inbound event, retries included",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"topic"},
	)

	OutboundEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecmatch",
			Name:      "outbound_events_total",
			Help:      "Published match and notification events",
		},
		[]string{"topic"},
	)

	CandidatesRecordedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vecmatch",
			Name:      "candidates_recorded_total",
			Help:      "Pending relations newly recorded by the matcher, both directions",
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers event pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(EventsTotal, EventDuration, OutboundEventsTotal, CandidatesRecordedTotal)
	pipelineMetricsRegistered = true
}
