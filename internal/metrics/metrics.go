package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline and stream counters exported on /metrics.
type Metrics struct {
	// Frame counters
	FramesCaptured atomic.Uint64
	FramesEmitted  atomic.Uint64
	FramesSkipped  atomic.Uint64
	Detections     atomic.Uint64

	// Error counters
	ReadErrors       atomic.Uint64
	EncodeErrors     atomic.Uint64
	PipelineFailures atomic.Uint64
	LeaseRejections  atomic.Uint64

	// Stream tracking
	ActiveStreams atomic.Int64
	TotalStreams  atomic.Uint64

	// Last frame processing time in microseconds
	ProcessLatencyUs atomic.Uint64

	registry *prometheus.Registry
}

// New creates a Metrics instance with its own Prometheus registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) counter(name, help string, v *atomic.Uint64) {
	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{Name: name, Help: help},
		func() float64 { return float64(v.Load()) },
	))
}

func (m *Metrics) registerPrometheusMetrics() {
	m.counter("weaponcam_frames_captured_total", "Frames read from the camera", &m.FramesCaptured)
	m.counter("weaponcam_frames_emitted_total", "Annotated frames written to stream consumers", &m.FramesEmitted)
	m.counter("weaponcam_frames_skipped_total", "Iterations that produced no output", &m.FramesSkipped)
	m.counter("weaponcam_detections_total", "Detections that survived suppression", &m.Detections)

	m.counter("weaponcam_read_errors_total", "Transient camera read failures", &m.ReadErrors)
	m.counter("weaponcam_encode_errors_total", "Transient frame encode failures", &m.EncodeErrors)
	m.counter("weaponcam_pipeline_failures_total", "Streams ended by a pipeline failure", &m.PipelineFailures)
	m.counter("weaponcam_lease_rejections_total", "Camera requests refused because the device was leased", &m.LeaseRejections)
	m.counter("weaponcam_streams_total", "Stream consumers served", &m.TotalStreams)

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "weaponcam_active_streams",
			Help: "Stream consumers currently connected",
		},
		func() float64 { return float64(m.ActiveStreams.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "weaponcam_process_latency_us",
			Help: "Processing time of the last frame in microseconds",
		},
		func() float64 { return float64(m.ProcessLatencyUs.Load()) },
	))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
