package observability

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/aelexs/smsgateway/internal/domain"
)

// MetricsConfig holds configuration for the metrics provider.
type MetricsConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string // empty disables export
}

// MetricsProvider wraps the OpenTelemetry meter provider with shutdown capabilities.
type MetricsProvider struct {
	provider *sdkmetric.MeterProvider
}

// InitMetrics initializes the global meter provider. The returned provider
// must be shut down on exit.
func InitMetrics(ctx context.Context, cfg MetricsConfig) (*MetricsProvider, error) {
	opts := []sdkmetric.Option{
		sdkmetric.WithResource(serviceResource(cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)),
	}

	if cfg.OTLPEndpoint != "" {
		exporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create OTLP metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
	}

	provider := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(provider)

	return &MetricsProvider{provider: provider}, nil
}

// Shutdown flushes any remaining metrics and shuts down the provider.
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	return mp.provider.Shutdown(ctx)
}

// Meter returns a meter for the given instrumentation name.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Outcome attribute values.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeProtocol = "protocol"
	OutcomeError    = "error"
)

// SMSMetrics holds the gateway instruments. A nil *SMSMetrics records nothing.
type SMSMetrics struct {
	requests  metric.Int64Counter
	refreshes metric.Int64Counter
}

// NewSMSMetrics creates the gateway instruments on meter.
func NewSMSMetrics(meter metric.Meter) (*SMSMetrics, error) {
	requests, err := meter.Int64Counter("sms.requests",
		metric.WithDescription("Gateway operations by provider, operation and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create sms.requests counter: %w", err)
	}
	refreshes, err := meter.Int64Counter("sms.token.refreshes",
		metric.WithDescription("Bearer token refresh attempts by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create sms.token.refreshes counter: %w", err)
	}
	return &SMSMetrics{requests: requests, refreshes: refreshes}, nil
}

// RecordCall counts one gateway operation.
func (m *SMSMetrics) RecordCall(ctx context.Context, provider, operation string, err error) {
	if m == nil {
		return
	}
	m.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
		attribute.String("outcome", Outcome(err)),
	))
}

// RecordTokenRefresh counts one token refresh attempt.
func (m *SMSMetrics) RecordTokenRefresh(ctx context.Context, provider string, err error) {
	if m == nil {
		return
	}
	m.refreshes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", Outcome(err)),
	))
}

// Outcome classifies err for the outcome attribute.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrProviderRejected):
		return OutcomeRejected
	case errors.Is(err, domain.ErrProviderProtocol):
		return OutcomeProtocol
	default:
		return OutcomeError
	}
}
