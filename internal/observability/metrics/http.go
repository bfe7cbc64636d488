package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics aggregates the api process meters: generic HTTP
// request accounting plus retrieval-specific observations.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	retrieveTotal        *prometheus.CounterVec
	retrieveDuration     *prometheus.HistogramVec
	retrieveResults      *prometheus.HistogramVec
	retrieveCandidates   *prometheus.CounterVec
	fusionBranchTotal    *prometheus.CounterVec
	fallbackClassified   *prometheus.CounterVec
	interactionsAccepted *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rgr",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rgr",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rgr",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	retrieveTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rgr",
			Subsystem: "retrieve",
			Name:      "requests_total",
			Help:      "Total completed retrieval requests by intent.",
		},
		[]string{"service", "intent"},
	)
	retrieveDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rgr",
			Subsystem: "retrieve",
			Name:      "duration_seconds",
			Help:      "Retrieval execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "intent"},
	)
	retrieveResults := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rgr",
			Subsystem: "retrieve",
			Name:      "fused_results",
			Help:      "Distribution of fused result counts per retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "intent"},
	)
	retrieveCandidates := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rgr",
			Subsystem: "retrieve",
			Name:      "candidates_total",
			Help:      "Total pre-fusion candidates by retrieval leg.",
		},
		[]string{"service", "leg"},
	)
	fusionBranchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rgr",
			Subsystem: "retrieve",
			Name:      "fusion_branch_total",
			Help:      "Total retrievals by fusion weight branch.",
		},
		[]string{"service", "branch"},
	)
	fallbackClassified := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rgr",
			Subsystem: "retrieve",
			Name:      "fallback_classified_total",
			Help:      "Total queries classified by the rule fallback after an analyzer failure.",
		},
		[]string{"service"},
	)
	interactionsAccepted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rgr",
			Subsystem: "interactions",
			Name:      "accepted_total",
			Help:      "Total interaction events accepted for async persistence.",
		},
		[]string{"service", "action"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		retrieveTotal,
		retrieveDuration,
		retrieveResults,
		retrieveCandidates,
		fusionBranchTotal,
		fallbackClassified,
		interactionsAccepted,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		retrieveTotal:        retrieveTotal,
		retrieveDuration:     retrieveDuration,
		retrieveResults:      retrieveResults,
		retrieveCandidates:   retrieveCandidates,
		fusionBranchTotal:    fusionBranchTotal,
		fallbackClassified:   fallbackClassified,
		interactionsAccepted: interactionsAccepted,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses identifier segments so metric cardinality
// stays bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/recipes/"):
		if strings.HasSuffix(path, "/similar") {
			return "/v1/recipes/{name}/similar"
		}
		return "/v1/recipes/{name}"
	case strings.HasPrefix(path, "/v1/users/"):
		return "/v1/users/{user_id}/profile"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordRetrieval(service, intent, branch string, resultCount, vectorCandidates, graphCandidates int, fallback bool, duration time.Duration) {
	if intent == "" {
		intent = "unknown"
	}
	m.retrieveTotal.WithLabelValues(service, intent).Inc()
	m.retrieveDuration.WithLabelValues(service, intent).Observe(duration.Seconds())
	m.retrieveResults.WithLabelValues(service, intent).Observe(float64(resultCount))
	if vectorCandidates > 0 {
		m.retrieveCandidates.WithLabelValues(service, "vector").Add(float64(vectorCandidates))
	}
	if graphCandidates > 0 {
		m.retrieveCandidates.WithLabelValues(service, "graph").Add(float64(graphCandidates))
	}
	if branch != "" {
		m.fusionBranchTotal.WithLabelValues(service, branch).Inc()
	}
	if fallback {
		m.fallbackClassified.WithLabelValues(service).Inc()
	}
}

func (m *HTTPServerMetrics) RecordInteractionAccepted(service, action string) {
	if action == "" {
		action = "unknown"
	}
	m.interactionsAccepted.WithLabelValues(service, action).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
