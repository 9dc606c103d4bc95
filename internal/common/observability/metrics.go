package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// Observability owns the otel meter provider. The prometheus exporter
// registers with the default registry, so readings show up on /metrics.
type Observability struct {
	meterProvider   *metric.MeterProvider
	tracer          trace.Tracer
	requestCounter  otelmetric.Int64Counter
	fetchDuration   otelmetric.Float64Histogram
	filterSelection otelmetric.Int64Histogram
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	o := newWithMeter(provider.Meter(serviceName), serviceName)
	o.meterProvider = provider
	return o, nil
}

// NewNoop returns an Observability whose instruments discard everything.
func NewNoop() *Observability {
	return &Observability{tracer: otel.Tracer("noop")}
}

func newWithMeter(meter otelmetric.Meter, serviceName string) *Observability {
	requestCounter, _ := meter.Int64Counter(
		"collections.requests.processed",
		otelmetric.WithDescription("Number of API operations processed"),
	)

	fetchDuration, _ := meter.Float64Histogram(
		"collections.fetch.duration",
		otelmetric.WithDescription("Batch lookup duration per slice"),
		otelmetric.WithUnit("ms"),
	)

	filterSelection, _ := meter.Int64Histogram(
		"collections.filters.active",
		otelmetric.WithDescription("Number of selected filter values per list request"),
	)

	return &Observability{
		tracer:          otel.Tracer(serviceName),
		requestCounter:  requestCounter,
		fetchDuration:   fetchDuration,
		filterSelection: filterSelection,
	}
}

// Tracer is used for fetch-slice spans.
func (o *Observability) Tracer() trace.Tracer {
	if o == nil || o.tracer == nil {
		return otel.Tracer("collections")
	}
	return o.tracer
}

func (o *Observability) RecordRequest(ctx context.Context, operation, status string) {
	if o == nil || o.requestCounter == nil {
		return
	}
	o.requestCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordFetchDuration(ctx context.Context, slice string, duration time.Duration, failed bool) {
	if o == nil || o.fetchDuration == nil {
		return
	}
	o.fetchDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("slice", slice),
		attribute.Bool("failed", failed),
	))
}

func (o *Observability) RecordActiveFilters(ctx context.Context, count int) {
	if o == nil || o.filterSelection == nil {
		return
	}
	o.filterSelection.Record(ctx, int64(count))
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
