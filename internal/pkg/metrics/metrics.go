package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "rover"

// Registry holds every rover metric plus the Go and process collectors.
// It is served on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// IntentsTotal counts dispatched intents.
	// outcome: immediate, deferred, failed
	IntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_total",
			Help:      "Total number of dispatched intents.",
		},
		[]string{"intent", "outcome"},
	)

	// DecodeDropsTotal counts inbound payloads dropped by the codec.
	// reason: empty, not_structured, malformed
	DecodeDropsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_drops_total",
			Help:      "Total number of inbound payloads dropped before dispatch.",
		},
		[]string{"reason"},
	)

	// InboundDropsTotal counts payloads dropped because the inbound queue was full.
	InboundDropsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_drops_total",
			Help:      "Total number of inbound payloads dropped on queue overflow.",
		},
	)

	// ResultsTotal counts results handed to the transport.
	ResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_total",
			Help:      "Total number of action results reported.",
		},
		[]string{"success"},
	)

	// ResultSendErrorsTotal counts results the transport failed to send.
	ResultSendErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_send_errors_total",
			Help:      "Total number of results that could not be sent.",
		},
	)

	// SchedulerEventsTotal counts scheduler transitions.
	// event: arm, preempt, complete, cancel
	SchedulerEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_events_total",
			Help:      "Total number of action scheduler events.",
		},
		[]string{"event"},
	)

	// HALErrorsTotal counts failed board writes.
	HALErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hal_errors_total",
			Help:      "Total number of failed hardware writes.",
		},
		[]string{"op"},
	)

	// ActuatorMode is 1 for the active actuator mode and 0 for the others.
	ActuatorMode = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "actuator_mode",
			Help:      "Current actuator mode (1 = active).",
		},
		[]string{"mode"},
	)

	// TransportConnected is 1 while the control link is up.
	TransportConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transport_connected",
			Help:      "Whether the control link is connected (1=connected, 0=disconnected).",
		},
	)

	// LoopCycleSeconds observes the work time of one control loop cycle.
	LoopCycleSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "loop_cycle_seconds",
			Help:      "Duration of one control loop cycle.",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025},
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		IntentsTotal,
		DecodeDropsTotal,
		InboundDropsTotal,
		ResultsTotal,
		ResultSendErrorsTotal,
		SchedulerEventsTotal,
		HALErrorsTotal,
		ActuatorMode,
		TransportConnected,
		LoopCycleSeconds,
	)
}

// SetActuatorMode marks mode as the only active actuator mode.
func SetActuatorMode(mode string, all []string) {
	for _, m := range all {
		v := 0.0
		if m == mode {
			v = 1
		}
		ActuatorMode.WithLabelValues(m).Set(v)
	}
}

// SetConnected records the transport link state.
func SetConnected(up bool) {
	if up {
		TransportConnected.Set(1)
		return
	}
	TransportConnected.Set(0)
}
