package middleware

import (
	"strconv"
	"time"

	"github.com/erp/rental/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Instrument names recorded by HTTPMetrics
const (
	metricRequests     = "rental.http.requests"
	metricDuration     = "rental.http.duration"
	metricResponseSize = "rental.http.response_size"
	metricInFlight     = "rental.http.in_flight"
	metricErrors       = "rental.http.errors"
)

var responseSizeBuckets = []float64{256, 1 << 10, 4 << 10, 16 << 10, 64 << 10, 256 << 10, 1 << 20, 4 << 20}

// HTTPMetricsConfig configures HTTPMetrics. Without a Telemetry provider
// that exports metrics the middleware does nothing.
type HTTPMetricsConfig struct {
	Telemetry *telemetry.Providers
	Enabled   bool
	Logger    *zap.Logger
}

type httpInstruments struct {
	requests *telemetry.Counter
	errors   *telemetry.Counter
	duration *telemetry.Histogram
	size     *telemetry.Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPInstruments(meter metric.Meter) (*httpInstruments, error) {
	var (
		in  httpInstruments
		err error
	)
	if in.requests, err = telemetry.NewCounter(meter, metricRequests, "Requests served", "{request}"); err != nil {
		return nil, err
	}
	if in.errors, err = telemetry.NewCounter(meter, metricErrors, "Error responses by API error code", "{request}"); err != nil {
		return nil, err
	}
	if in.duration, err = telemetry.NewHistogram(meter, metricDuration, "Request latency", "s", telemetry.HTTPDurationBuckets); err != nil {
		return nil, err
	}
	if in.size, err = telemetry.NewHistogram(meter, metricResponseSize, "Response body size", "By", responseSizeBuckets); err != nil {
		return nil, err
	}
	in.inFlight, err = meter.Int64UpDownCounter(metricInFlight,
		metric.WithDescription("Requests being handled"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// HTTPMetrics counts requests per route and status, records latency and
// response size, and counts error responses by the code handlers tagged
// them with.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || !cfg.Telemetry.MetricsEnabled() {
		return passThrough
	}
	in, err := newHTTPInstruments(cfg.Telemetry.Meter("http.server"))
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return passThrough
	}
	return in.handle
}

// HTTPMetricsWithMeter is HTTPMetrics on an explicit meter
func HTTPMetricsWithMeter(meter metric.Meter, enabled bool) gin.HandlerFunc {
	if !enabled {
		return passThrough
	}
	in, err := newHTTPInstruments(meter)
	if err != nil {
		return passThrough
	}
	return in.handle
}

func passThrough(c *gin.Context) {
	c.Next()
}

func (in *httpInstruments) handle(c *gin.Context) {
	ctx := c.Request.Context()
	start := time.Now()
	in.inFlight.Add(ctx, 1)
	defer in.inFlight.Add(ctx, -1)

	c.Next()

	status := c.Writer.Status()
	route := []attribute.KeyValue{
		telemetry.KeyHTTPMethod.String(c.Request.Method),
		telemetry.KeyHTTPRoute.String(routeTemplate(c)),
	}
	in.requests.Inc(ctx, append(route,
		telemetry.KeyHTTPStatusCode.Int(status),
		telemetry.KeyHTTPStatusClass.String(StatusClass(status)))...)
	in.duration.RecordDuration(ctx, time.Since(start), route...)
	if n := c.Writer.Size(); n > 0 {
		in.size.Record(ctx, float64(n), route...)
	}
	if code := c.GetString(errorCodeContextKey); code != "" {
		in.errors.Inc(ctx, append(route, telemetry.KeyErrorCode.String(code))...)
	}
}

// routeTemplate keeps label cardinality bounded by using the matched
// pattern, e.g. /api/v1/tenants/:id
func routeTemplate(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

// StatusClass returns "2xx" style buckets. Codes outside 100-599 are "other".
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "other"
	}
	return strconv.Itoa(status/100) + "xx"
}
