package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for degradable calls.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeDiscard = "discarded" // answered, but not a usable score
)

// Post source operation labels.
const (
	OperationPosts = "new_posts"
	OperationAbout = "subscribers"
)

// Collector owns the service's Prometheus registry. A nil *Collector is
// valid and records nothing, so services can be built without metrics.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	sourceCallsTotal    *prometheus.CounterVec
	scoreCallsTotal     *prometheus.CounterVec
	searchResults       prometheus.Histogram
}

// NewCollector creates a collector with metric names prefixed by serviceName.
func NewCollector(serviceName string) *Collector {
	ns := strings.ReplaceAll(serviceName, "-", "_")
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: ns + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    ns + "_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "endpoint"},
		),
		sourceCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: ns + "_source_calls_total",
				Help: "Post source calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		scoreCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: ns + "_score_calls_total",
				Help: "Relevance scorer calls by outcome",
			},
			[]string{"outcome"},
		),
		searchResults: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    ns + "_search_results",
				Help:    "Number of memes returned per search",
				Buckets: prometheus.LinearBuckets(0, 5, 6),
			},
		),
	}

	reg.MustRegister(
		c.httpRequestsTotal,
		c.httpRequestDuration,
		c.sourceCallsTotal,
		c.scoreCallsTotal,
		c.searchResults,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveSourceCall records one post source call.
func (c *Collector) ObserveSourceCall(operation string, err error) {
	if c == nil {
		return
	}
	c.sourceCallsTotal.WithLabelValues(operation, outcome(err)).Inc()
}

// ObserveScore records one scorer call. discarded marks answers that were
// received but coerced to 0.
func (c *Collector) ObserveScore(err error, discarded bool) {
	if c == nil {
		return
	}
	switch {
	case err != nil:
		c.scoreCallsTotal.WithLabelValues(OutcomeError).Inc()
	case discarded:
		c.scoreCallsTotal.WithLabelValues(OutcomeDiscard).Inc()
	default:
		c.scoreCallsTotal.WithLabelValues(OutcomeOK).Inc()
	}
}

// ObserveSearchResults records the size of one result page.
func (c *Collector) ObserveSearchResults(n int) {
	if c == nil {
		return
	}
	c.searchResults.Observe(float64(n))
}

// Middleware returns gin middleware that collects HTTP metrics.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		endpoint := ctx.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		c.httpRequestsTotal.WithLabelValues(ctx.Request.Method, endpoint, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.httpRequestDuration.WithLabelValues(ctx.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the Prometheus scrape handler for this registry.
func (c *Collector) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	return func(ctx *gin.Context) {
		h.ServeHTTP(ctx.Writer, ctx.Request)
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
