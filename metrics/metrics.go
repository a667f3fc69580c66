package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "matching_server"

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	matchingEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "events_total",
			Help:      "Matching lifecycle events by kind.",
		},
		[]string{"event"},
	)

	applyEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "apply",
			Name:      "events_total",
			Help:      "Apply outcomes by result.",
		},
		[]string{"result"},
	)

	notificationsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "published_total",
			Help:      "Notifications handed to the publisher.",
		},
		[]string{"type", "success"},
	)

	exportJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "jobs_total",
			Help:      "Roster export jobs by final status.",
		},
		[]string{"status"},
	)

	closerRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recruit_closer",
			Name:      "runs_total",
			Help:      "Recruitment closer executions.",
		},
		[]string{"success"},
	)

	closerClosed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recruit_closer",
			Name:      "closed_total",
			Help:      "Matchings closed because their due date passed.",
		},
	)

	closerDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recruit_closer",
			Name:      "run_duration_seconds",
			Help:      "Duration of recruitment closer runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		matchingEvents,
		applyEvents,
		notificationsPublished,
		exportJobs,
		closerRuns,
		closerClosed,
		closerDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// TrackInFlight increments the in-flight gauge and returns its release.
func TrackInFlight() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// ObserveRequest records one handled request. route should be the route
// template, not the raw path, to keep label cardinality bounded.
func ObserveRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordMatchingEvent(event string) {
	matchingEvents.WithLabelValues(event).Inc()
}

func RecordApplyEvent(result string) {
	applyEvents.WithLabelValues(result).Inc()
}

func RecordNotification(notificationType string, success bool) {
	notificationsPublished.WithLabelValues(notificationType, strconv.FormatBool(success)).Inc()
}

func RecordExport(status string) {
	exportJobs.WithLabelValues(status).Inc()
}

func RecordCloserRun(closed int, duration time.Duration, success bool) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	closerRuns.WithLabelValues(strconv.FormatBool(success)).Inc()
	closerClosed.Add(float64(closed))
	closerDuration.Observe(duration.Seconds())
}
