// Package metrics provides Prometheus metrics for the replay pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics covers the replay pipeline. Decode errors never reach stdout; the
// counters here are the only place they are visible besides debug logs.
type Metrics struct {
	FramesTotal    prometheus.Counter
	FramesSkipped  prometheus.Counter
	QuotesDecoded  prometheus.Counter
	DecodeErrors   *prometheus.CounterVec // label: kind (text/parse/time)
	QuotesEmitted  prometheus.Counter
	WindowSize     prometheus.Gauge
	ClockAnomalies prometheus.Counter
}

// New registers the pipeline metrics with reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FramesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "replay_frames_total",
			Help: "Frames read from the capture source.",
		}),
		FramesSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "replay_frames_skipped_total",
			Help: "Frames not carrying this feed's traffic.",
		}),
		QuotesDecoded: f.NewCounter(prometheus.CounterOpts{
			Name: "replay_quotes_decoded_total",
			Help: "Frames decoded into quotes.",
		}),
		DecodeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "replay_decode_errors_total",
			Help: "Marked payloads dropped due to decode failures.",
		}, []string{"kind"}),
		QuotesEmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "replay_quotes_emitted_total",
			Help: "Quotes written to the output sink.",
		}),
		WindowSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "replay_window_size",
			Help: "Quotes currently buffered in the reorder window.",
		}),
		ClockAnomalies: f.NewCounter(prometheus.CounterOpts{
			Name: "replay_clock_anomalies_total",
			Help: "Quotes whose accept time is later than their capture time.",
		}),
	}
}

// StartServer exposes /metrics on addr in the background.
func StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, nil)
	}()
}
