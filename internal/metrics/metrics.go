package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Native runtime calls
	NativeCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clfacade_native_calls_total",
		Help: "Native OpenCL entry point invocations by operation and returned status",
	}, []string{"op", "status"})

	NativeCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clfacade_native_call_duration_seconds",
		Help:    "Latency of native OpenCL entry points",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12), // 1us to ~4s
	}, []string{"op"})

	// Calls rejected before reaching the native runtime
	LocalRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clfacade_local_rejections_total",
		Help: "Operations rejected by the facade without a native call, by reason",
	}, []string{"op", "kind"})

	LiveHandles = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "clfacade_live_handles",
		Help: "Handles created through the facade and not yet released, by object kind",
	}, []string{"kind"})

	// Process-wide: each Open overwrites it, so with several runtimes open
	// it reports whichever negotiated last.
	NegotiatedVersion = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clfacade_negotiated_version",
		Help: "OpenCL version negotiated by the most recently opened runtime in this process, as major*10+minor",
	})

	EndpointResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clfacade_endpoint_responses_total",
		Help: "The total number of responses served by the metrics endpoint",
	}, []string{"endpoint", "status_code"})
)
