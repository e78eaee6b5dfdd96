package fsm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	outcomeSuccess  = "success"
	outcomeError    = "error"
	outcomeTooBusy  = "too_busy"
	outcomeCanceled = "canceled"

	reasonStale    = "stale_state"
	reasonRetry    = "retry"
	reasonBlocking = "blocking"
)

var (
	// eventsTotal counts OnEvent calls by machine and terminal outcome. Event
	// names come from callers and stay on spans only.
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsm_events_total",
		Help: "Total number of processed events by machine and outcome",
	}, []string{"machine", "outcome"})

	// transitionsTotal counts successful conditional writes.
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsm_transitions_total",
		Help: "Total number of persisted state transitions by machine, from and to state",
	}, []string{"machine", "from", "to"})

	// retriesTotal counts loop restarts by cause.
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsm_retries_total",
		Help: "Total number of event re-evaluations by machine and reason (stale_state, retry, blocking)",
	}, []string{"machine", "reason"})

	eventDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fsm_event_duration_seconds",
		Help:    "Duration of OnEvent calls including retries and waits",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"machine", "outcome"})
)

func recordEvent(machine, outcome string, d time.Duration) {
	eventsTotal.WithLabelValues(machine, outcome).Inc()
	eventDuration.WithLabelValues(machine, outcome).Observe(d.Seconds())
}

func recordTransition(machine, from, to string) {
	transitionsTotal.WithLabelValues(machine, from, to).Inc()
}

func recordRetry(span trace.Span, machine, reason string, attempt int, wait time.Duration) {
	retriesTotal.WithLabelValues(machine, reason).Inc()
	span.AddEvent("fsm.retry", trace.WithAttributes(
		attribute.String("fsm.retry.reason", reason),
		attribute.Int("fsm.retry.attempt", attempt),
		attribute.Int64("fsm.retry.wait_ms", wait.Milliseconds()),
	))
}
