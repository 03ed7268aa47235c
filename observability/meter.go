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

	"github.com/skillsenselab/svckit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the supervising process.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
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

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on process exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
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

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// SupervisionMetrics holds the metric instruments recorded by the
// supervision core: health probing, recovery attempts, and registry
// membership.
type SupervisionMetrics struct {
	probeTotal      metric.Int64Counter
	probeDuration   metric.Float64Histogram
	recoveryTotal   metric.Int64Counter
	recoveryDur     metric.Float64Histogram
	evictedTotal    metric.Int64Counter
	registeredGauge metric.Int64UpDownCounter
}

// NewSupervisionMetrics creates the supervision instruments on the given meter.
func NewSupervisionMetrics(meter metric.Meter) (*SupervisionMetrics, error) {
	probeTotal, err := meter.Int64Counter("probe.total",
		metric.WithDescription("Total number of health probes by service and resulting status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating probe.total counter: %w", err)
	}

	probeDuration, err := meter.Float64Histogram("probe.duration",
		metric.WithDescription("Duration of health probes in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating probe.duration histogram: %w", err)
	}

	recoveryTotal, err := meter.Int64Counter("recovery.attempt.total",
		metric.WithDescription("Total recovery attempts by service, strategy, and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating recovery.attempt.total counter: %w", err)
	}

	recoveryDur, err := meter.Float64Histogram("recovery.duration",
		metric.WithDescription("Duration of recovery attempts in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating recovery.duration histogram: %w", err)
	}

	evictedTotal, err := meter.Int64Counter("service.evicted.total",
		metric.WithDescription("Services evicted after exhausting recovery attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating service.evicted.total counter: %w", err)
	}

	registeredGauge, err := meter.Int64UpDownCounter("services.registered",
		metric.WithDescription("Number of currently registered services"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating services.registered gauge: %w", err)
	}

	return &SupervisionMetrics{
		probeTotal:      probeTotal,
		probeDuration:   probeDuration,
		recoveryTotal:   recoveryTotal,
		recoveryDur:     recoveryDur,
		evictedTotal:    evictedTotal,
		registeredGauge: registeredGauge,
	}, nil
}

// RecordProbe records one health probe result.
func (m *SupervisionMetrics) RecordProbe(ctx context.Context, serviceID, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("service_id", serviceID),
		attribute.String("status", status),
	)
	m.probeTotal.Add(ctx, 1, attrs)
	m.probeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("service_id", serviceID),
	))
}

// RecordRecovery records one recovery attempt and its outcome.
func (m *SupervisionMetrics) RecordRecovery(ctx context.Context, serviceID, strategy, outcome string, duration time.Duration) {
	m.recoveryTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service_id", serviceID),
		attribute.String("strategy", strategy),
		attribute.String("outcome", outcome),
	))
	m.recoveryDur.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("service_id", serviceID),
		attribute.String("strategy", strategy),
	))
}

// RecordEviction records the automatic unregistration of a service.
func (m *SupervisionMetrics) RecordEviction(ctx context.Context, serviceID string) {
	m.evictedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service_id", serviceID),
	))
}

// RecordRegistered adjusts the registered-services gauge by delta.
func (m *SupervisionMetrics) RecordRegistered(ctx context.Context, delta int64) {
	m.registeredGauge.Add(ctx, delta)
}
