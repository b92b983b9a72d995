package genai

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type generationMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
}

var genaiMetricsInit = false
var genaiMetrics generationMetrics

func ensureGenerationMetrics() {
	if genaiMetricsInit {
		return
	}
	meter := otel.Meter("github.com/labdraft/backend/genai")

	requestCount, err := meter.Int64Counter(
		"ai.generation.request.count",
		metric.WithDescription("Number of generation service requests"),
	)
	if err != nil {
		return
	}
	requestDuration, err := meter.Float64Histogram(
		"ai.generation.request.duration",
		metric.WithDescription("Generation request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return
	}
	requestErrors, err := meter.Int64Counter(
		"ai.generation.request.errors",
		metric.WithDescription("Number of generation request errors"),
	)
	if err != nil {
		return
	}

	genaiMetrics = generationMetrics{
		requestCount:    requestCount,
		requestDuration: requestDuration,
		requestErrors:   requestErrors,
	}
	genaiMetricsInit = true
}

func recordGenerationMetric(ctx context.Context, model, transport string, statusCode int, duration time.Duration, err error) {
	ensureGenerationMetrics()
	if !genaiMetricsInit {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.model", model),
		attribute.String("ai.transport", transport),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	genaiMetrics.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	genaiMetrics.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		genaiMetrics.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
