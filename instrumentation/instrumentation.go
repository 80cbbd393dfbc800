// Package instrumentation provides OpenTelemetry metrics for the
// authentication authority. When disabled it swaps in no-op providers so
// every Record call is free.
package instrumentation

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config holds instrumentation configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// Enabled controls whether real instruments are created. When false,
	// no-op providers are used instead.
	Enabled bool
}

// Instrumentation owns the meter provider and the pre-built instruments.
type Instrumentation struct {
	meterProvider metric.MeterProvider
	metrics       *Metrics

	sdkProvider *sdkmetric.MeterProvider
}

// New creates the instrumentation stack for the service.
func New(config Config) (*Instrumentation, error) {
	if config.ServiceName == "" {
		config.ServiceName = "ospass"
	}
	if config.ServiceVersion == "" {
		config.ServiceVersion = "unknown"
	}

	inst := &Instrumentation{}

	if config.Enabled {
		res, err := resource.New(
			context.Background(),
			resource.WithAttributes(
				semconv.ServiceName(config.ServiceName),
				semconv.ServiceVersion(config.ServiceVersion),
			),
		)
		if err != nil {
			return nil, errors.Wrap(err, "[instrumentation.New] create resource")
		}
		inst.sdkProvider = sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
		inst.meterProvider = inst.sdkProvider
	} else {
		inst.meterProvider = noop.NewMeterProvider()
	}

	metrics, err := newMetrics(inst.meterProvider.Meter("ospass"))
	if err != nil {
		return nil, errors.Wrap(err, "[instrumentation.New] create metrics")
	}
	inst.metrics = metrics

	return inst, nil
}

// Metrics returns the instrument set.
func (i *Instrumentation) Metrics() *Metrics {
	return i.metrics
}

// Shutdown flushes and stops the meter provider.
func (i *Instrumentation) Shutdown(ctx context.Context) error {
	if i.sdkProvider == nil {
		return nil
	}
	if err := i.sdkProvider.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "[Instrumentation.Shutdown] shutdown meter provider")
	}
	return nil
}
