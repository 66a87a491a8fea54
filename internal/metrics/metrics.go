package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the service collectors on a private prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	CalculationsTotal   *prometheus.CounterVec
	CalculationDuration prometheus.Histogram
	DegradedVendors     *prometheus.CounterVec
	SweepsTotal         *prometheus.CounterVec
	ReportsTotal        *prometheus.CounterVec
	ErrorsTotal         *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func NewRegistry(namespace string) *Registry {
	if namespace == "" {
		namespace = "nactco"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Registry{
		registry: reg,
		CalculationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Comparison runs by size tier and industry",
		}, []string{"size_tier", "industry"}),
		CalculationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calculation_duration_seconds",
			Help:      "Time to evaluate every vendor for one organization",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		DegradedVendors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_vendor_results_total",
			Help:      "Vendor results zero-filled because catalog data was missing",
		}, []string{"vendor"}),
		SweepsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensitivity_sweeps_total",
			Help:      "Sensitivity sweeps by variable",
		}, []string{"variable"}),
		ReportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Rendered reports by format",
		}, []string{"format"}),
		ErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors returned to callers by error code",
		}, []string{"code"}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (r *Registry) Gatherer() prometheus.Gatherer { return r.registry }

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveCalculation records one successful comparison run. A nil registry
// is a no-op so callers need not check whether metrics are enabled.
func (r *Registry) ObserveCalculation(sizeTier, industry string, elapsed time.Duration, degraded []string) {
	if r == nil {
		return
	}
	r.CalculationsTotal.WithLabelValues(sizeTier, industry).Inc()
	r.CalculationDuration.Observe(elapsed.Seconds())
	for _, id := range degraded {
		r.DegradedVendors.WithLabelValues(id).Inc()
	}
}

func (r *Registry) ObserveSweep(variable string) {
	if r == nil {
		return
	}
	r.SweepsTotal.WithLabelValues(variable).Inc()
}

func (r *Registry) ObserveReport(format string) {
	if r == nil {
		return
	}
	r.ReportsTotal.WithLabelValues(format).Inc()
}

func (r *Registry) ObserveError(code string) {
	if r == nil {
		return
	}
	r.ErrorsTotal.WithLabelValues(code).Inc()
}

func (r *Registry) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
