package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	httpDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
	// webhook payloads are a few KiB; full product payloads run larger
	httpSizeBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000}
)

type httpInstruments struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	size     metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPInstruments(meter metric.Meter) (*httpInstruments, error) {
	var (
		in  httpInstruments
		err error
	)
	if in.requests, err = meter.Int64Counter("http_server_request_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	if in.duration, err = meter.Float64Histogram("http_server_request_duration_seconds",
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(httpDurationBuckets...),
	); err != nil {
		return nil, err
	}
	if in.size, err = meter.Float64Histogram("http_server_request_size_bytes",
		metric.WithDescription("HTTP request body size in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(httpSizeBuckets...),
	); err != nil {
		return nil, err
	}
	if in.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Number of HTTP requests in flight"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	return &in, nil
}

// HTTPMetrics records request count by method, route, status and webhook
// topic, plus latency, body size and requests in flight. The route is the
// matched pattern so cardinality stays bounded. A nil meter, or one whose
// instruments cannot be created, yields a pass-through handler.
func HTTPMetrics(meter metric.Meter) gin.HandlerFunc {
	if meter == nil {
		return passThrough
	}
	in, err := newHTTPInstruments(meter)
	if err != nil {
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		in.inFlight.Add(ctx, 1)
		c.Next()
		in.inFlight.Add(ctx, -1)

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		base := attribute.NewSet(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
		)

		counted := []attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", c.Writer.Status()),
		}
		if topic := truncate(c.GetHeader(HeaderTopic)); topic != "" {
			counted = append(counted, attribute.String("webhook.topic", topic))
		}
		in.requests.Add(ctx, 1, metric.WithAttributes(counted...))
		in.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributeSet(base))
		if size := c.Request.ContentLength; size > 0 {
			in.size.Record(ctx, float64(size), metric.WithAttributeSet(base))
		}
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}
