package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"academy/internal/domain/association"
)

// Save outcomes reported by academy_plan_course_saves_total.
const (
	saveOutcomeApplied  = "applied"
	saveOutcomeEmpty    = "empty"
	saveOutcomeRejected = "rejected"
	saveOutcomeError    = "error"
)

// appMetrics holds the collectors served on /metrics.
type appMetrics struct {
	registry       *prometheus.Registry
	requestSeconds *prometheus.HistogramVec
	saves          *prometheus.CounterVec
	changes        *prometheus.CounterVec
}

var metrics *appMetrics

// resetMetrics builds a fresh registry so repeated NewMux calls in tests do not double-register.
func resetMetrics() {
	m := &appMetrics{
		registry: prometheus.NewRegistry(),
		requestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "academy_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academy_plan_course_saves_total",
			Help: "Plan course association saves by outcome.",
		}, []string{"outcome"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "academy_plan_course_changes_total",
			Help: "Courses linked to or unlinked from plans.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		m.requestSeconds,
		m.saves,
		m.changes,
		collectors.NewGoCollector(),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "academy_open_editors",
			Help: "Plan course editors held for operator sessions.",
		}, func() float64 {
			if editors == nil {
				return 0
			}
			return float64(editors.Len())
		}),
	)
	metrics = m
}

func metricsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

// observeRequest feeds the latency histogram from the timing middleware.
func observeRequest(method, path string, status int, d time.Duration) {
	if metrics == nil {
		return
	}
	metrics.requestSeconds.WithLabelValues(method, routeLabel(path), strconv.Itoa(status)).Observe(d.Seconds())
}

// recordSave counts one save attempt and, when applied, its changes.
func recordSave(outcome string, d association.Diff) {
	if metrics == nil {
		return
	}
	metrics.saves.WithLabelValues(outcome).Inc()
	if outcome == saveOutcomeApplied {
		metrics.changes.WithLabelValues("added").Add(float64(len(d.Add)))
		metrics.changes.WithLabelValues("removed").Add(float64(len(d.Remove)))
	}
}

// otherRoute labels every path that does not match a registered route.
const otherRoute = "other"

// knownRoutes are the registered routes after ID collapsing.
var knownRoutes = map[string]bool{
	"/":                                true,
	"/api/courses":                     true,
	"/api/billing-plans":               true,
	"/api/plans/{planId}/courses":      true,
	"/api/perf":                        true,
	"/metrics":                         true,
	"/plans":                           true,
	"/plans/{planId}/courses":          true,
	"/plans/{planId}/courses/{action}": true,
}

// routeLabel collapses plan IDs so the route label stays low-cardinality.
// Unregistered paths all share otherRoute.
func routeLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) >= 3 && parts[0] == "api" && parts[1] == "plans":
		parts[2] = "{planId}"
	case len(parts) >= 2 && parts[0] == "plans":
		parts[1] = "{planId}"
		if len(parts) == 4 {
			parts[3] = "{action}"
		}
	}
	label := "/" + strings.Join(parts, "/")
	if !knownRoutes[label] {
		return otherRoute
	}
	return label
}
