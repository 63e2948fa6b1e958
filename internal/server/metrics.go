package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the HTTP surface. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	uploadsTotal    *prometheus.CounterVec
	uploadBytes     prometheus.Counter
	downloadsTotal  *prometheus.CounterVec
	downloadBytes   prometheus.Counter
}

// NewMetrics creates a private registry with the fd_* collectors plus the
// Go runtime and process collectors.
func NewMetrics(build BuildInfo) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	f.NewGauge(prometheus.GaugeOpts{
		Name:        "fd_build_info",
		Help:        "Build information",
		ConstLabels: prometheus.Labels{"version": build.Version, "commit": build.Commit},
	}).Set(1)

	return &Metrics{
		registry: reg,
		requestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fd_http_requests_total",
				Help: "HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fd_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"route"},
		),
		uploadsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fd_uploads_total",
				Help: "Upload attempts by result",
			},
			[]string{"result"},
		),
		uploadBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "fd_upload_bytes_total",
			Help: "Bytes stored by successful uploads",
		}),
		downloadsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fd_downloads_total",
				Help: "Download attempts by result",
			},
			[]string{"result"},
		),
		downloadBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "fd_download_bytes_total",
			Help: "Bytes streamed to clients",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordUpload(result string, bytes int64) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(result).Inc()
	m.uploadBytes.Add(float64(bytes))
}

func (m *Metrics) RecordDownload(result string, bytes int64) {
	if m == nil {
		return
	}
	m.downloadsTotal.WithLabelValues(result).Inc()
	m.downloadBytes.Add(float64(bytes))
}
