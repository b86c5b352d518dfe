package inference

import "github.com/prometheus/client_golang/prometheus"

var (
	// upstreamReqs counts completed calls to the inference service by mode
	// ("buffered" or "stream") and outcome ("ok", "timeout", "unavailable",
	// "protocol_error").
	upstreamReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inference_upstream_requests_total",
			Help: "Total number of calls to the inference service.",
		},
		[]string{"mode", "outcome"},
	)

	// upstreamChunks counts raw chunks relayed from streaming completions.
	upstreamChunks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inference_upstream_stream_chunks_total",
			Help: "Total number of chunks received from streaming completions.",
		},
	)
)

func init() {
	prometheus.MustRegister(upstreamReqs, upstreamChunks)
}

// outcomeOf condenses a typed client error into a metric label value.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsTimeout(err):
		return "timeout"
	case IsUnavailable(err):
		return "unavailable"
	default:
		if _, ok := AsProtocolError(err); ok {
			return "protocol_error"
		}
		return "error"
	}
}
