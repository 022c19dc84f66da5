// Package metrics exposes Prometheus instruments for the HTTP surface,
// text extraction and question answering.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "contexta"

type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	extractionsTotal *prometheus.CounterVec
	extractedChars   *prometheus.HistogramVec
	answersTotal     *prometheus.CounterVec
	answerDuration   *prometheus.HistogramVec
	truncationsTotal prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests processed.",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		requestInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "in_flight_requests",
				Help:      "Number of in-flight HTTP requests.",
			},
		),
		extractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "extraction",
				Name:      "total",
				Help:      "Text extractions by format and outcome.",
			},
			[]string{"format", "outcome"},
		),
		extractedChars: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "extraction",
				Name:      "characters",
				Help:      "Characters of text produced per successful extraction.",
				Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
			},
			[]string{"format"},
		),
		answersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "answer",
				Name:      "total",
				Help:      "Answered questions by model and outcome.",
			},
			[]string{"model", "outcome"},
		),
		answerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "answer",
				Name:      "duration_seconds",
				Help:      "Time spent producing an answer, model call included.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"model"},
		),
		truncationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "answer",
				Name:      "context_truncations_total",
				Help:      "Questions whose context was cut to the model input limit.",
			},
		),
	}

	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.requestInFlight,
		m.extractionsTotal,
		m.extractedChars,
		m.answersTotal,
		m.answerDuration,
		m.truncationsTotal,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency labelled by the chi route
// pattern, so it must be mounted on a chi router.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) ObserveExtraction(format, outcome string, chars int) {
	if format == "" {
		format = "unknown"
	}
	m.extractionsTotal.WithLabelValues(format, outcome).Inc()
	if outcome == "ok" {
		m.extractedChars.WithLabelValues(format).Observe(float64(chars))
	}
}

func (m *Metrics) ObserveAnswer(model, outcome string, took time.Duration) {
	m.answersTotal.WithLabelValues(model, outcome).Inc()
	m.answerDuration.WithLabelValues(model).Observe(took.Seconds())
}

func (m *Metrics) ObserveTruncation() {
	m.truncationsTotal.Inc()
}
