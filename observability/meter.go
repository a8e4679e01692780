package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/kbukum/bindkit/logger"
)

// MeterName is the instrumentation scope used by the module.
const MeterName = "github.com/kbukum/bindkit"

// Resolution outcomes.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeEmpty = "empty"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	// When empty, no exporter is installed and only Readers receive data.
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
	// Readers are extra readers attached to the provider (e.g. a ManualReader).
	Readers []sdkmetric.Reader
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it as
// the global provider. The returned provider should be shut down on exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	providerOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range config.Readers {
		providerOpts = append(providerOpts, sdkmetric.WithReader(r))
	}

	if config.Endpoint != "" {
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(config.Endpoint),
		}
		if config.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}

		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating metric exporter: %w", err)
		}

		readerOpts := []sdkmetric.PeriodicReaderOption{}
		if config.Interval > 0 {
			readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
		}
		providerOpts = append(providerOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)))
	}

	mp := sdkmetric.NewMeterProvider(providerOpts...)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// newResource creates an OpenTelemetry resource with service metadata.
func newResource(serviceName, serviceVersion, environment string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
			attribute.String("environment", environment),
		),
	)
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by registries and engines.
type Metrics struct {
	resolutions   metric.Int64Counter
	released      metric.Int64Counter
	assignments   metric.Int64Counter
	constructions metric.Int64Counter
	switches      metric.Int64Counter
	replayed      metric.Int64Histogram
	tracked       metric.Int64UpDownCounter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	resolutions, err := meter.Int64Counter("bindkit.resolution.total",
		metric.WithDescription("Binding resolutions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating bindkit.resolution.total counter: %w", err)
	}

	released, err := meter.Int64Counter("bindkit.descriptor.released",
		metric.WithDescription("Descriptors returned to the pool by registry release"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating bindkit.descriptor.released counter: %w", err)
	}

	assignments, err := meter.Int64Counter("bindkit.injection.assignments",
		metric.WithDescription("Injectable members assigned, by member kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating bindkit.injection.assignments counter: %w", err)
	}

	constructions, err := meter.Int64Counter("bindkit.construction.total",
		metric.WithDescription("Instances created by the engine, by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating bindkit.construction.total counter: %w", err)
	}

	switches, err := meter.Int64Counter("bindkit.context.switches",
		metric.WithDescription("Active registry swaps performed by engines"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating bindkit.context.switches counter: %w", err)
	}

	replayed, err := meter.Int64Histogram("bindkit.context.replayed",
		metric.WithDescription("Cached owners re-injected per context switch"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating bindkit.context.replayed histogram: %w", err)
	}

	tracked, err := meter.Int64UpDownCounter("bindkit.injection.tracked",
		metric.WithDescription("Owner/instance pairs currently tracked by engines"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating bindkit.injection.tracked gauge: %w", err)
	}

	return &Metrics{
		resolutions:   resolutions,
		released:      released,
		assignments:   assignments,
		constructions: constructions,
		switches:      switches,
		replayed:      replayed,
		tracked:       tracked,
	}, nil
}

// RecordResolution records one registry query.
func (m *Metrics) RecordResolution(ctx context.Context, registry, outcome string) {
	if m == nil {
		return
	}
	m.resolutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("registry", registry),
		attribute.String("outcome", outcome),
	))
}

// RecordRelease records descriptors returned to the pool.
func (m *Metrics) RecordRelease(ctx context.Context, registry string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.released.Add(ctx, int64(n), metric.WithAttributes(attribute.String("registry", registry)))
}

// RecordAssignment records one member assignment.
func (m *Metrics) RecordAssignment(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.assignments.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordConstruction records one CreateInstance call.
func (m *Metrics) RecordConstruction(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.constructions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordSwitch records a context switch that replayed n cached owners.
func (m *Metrics) RecordSwitch(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.switches.Add(ctx, 1)
	m.replayed.Record(ctx, int64(n))
}

// RecordTracked adjusts the number of tracked owner/instance pairs.
func (m *Metrics) RecordTracked(ctx context.Context, delta int) {
	if m == nil || delta == 0 {
		return
	}
	m.tracked.Add(ctx, int64(delta))
}
