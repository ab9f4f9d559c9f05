package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	routeGroupKey = "metrics.route_group"

	// RouteGroupSystem labels requests outside any tagged group (health, metrics, 404s).
	RouteGroupSystem = "system"
)

// HTTPMetrics counts and times inbound requests per route and route group.
type HTTPMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

func NewHTTPMetrics(cfg Config, provider metric.MeterProvider) (*HTTPMetrics, error) {
	meter := provider.Meter(meterName(cfg) + "/http")

	requests, err := meter.Int64Counter("invoicedesk_http_requests_total")
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("invoicedesk_http_request_duration_ms", metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	inFlight, err := meter.Int64UpDownCounter("invoicedesk_http_requests_in_flight")
	if err != nil {
		return nil, err
	}
	return &HTTPMetrics{requests: requests, duration: duration, inFlight: inFlight}, nil
}

// RouteGroup tags every request of a router group, e.g. "auth" for the login
// flow and "api" for routes behind the session check.
func RouteGroup(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(routeGroupKey, name)
		c.Next()
	}
}

func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		start := time.Now()
		m.inFlight.Add(ctx, 1)
		c.Next()
		m.inFlight.Add(ctx, -1)

		attrs := metric.WithAttributes(FilterAttributes(
			attribute.String("endpoint", endpointOf(c)),
			attribute.String("route_group", routeGroupOf(c)),
			attribute.String("status_class", StatusClass(c.Writer.Status())),
		)...)
		m.requests.Add(ctx, 1, attrs)
		m.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	}
}

func endpointOf(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return "unmatched"
}

func routeGroupOf(c *gin.Context) string {
	if group := c.GetString(routeGroupKey); group != "" {
		return group
	}
	return RouteGroupSystem
}
