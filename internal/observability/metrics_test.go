package observability_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/aelexs/smsgateway/internal/domain"
	"github.com/aelexs/smsgateway/internal/observability"
)

func TestInitMetrics_NoEndpoint(t *testing.T) {
	cfg := observability.MetricsConfig{
		ServiceName:    "test-service",
		ServiceVersion: "0.0.1",
		Environment:    "test",
	}

	mp, err := observability.InitMetrics(context.Background(), cfg)

	require.NoError(t, err)
	require.NotNil(t, mp)
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestMetricsProvider_ShutdownNilProvider(t *testing.T) {
	mp := &observability.MetricsProvider{}

	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, observability.OutcomeOK},
		{"coded", domain.NewCodedError("formgw", 1, "x"), observability.OutcomeRejected},
		{"unstructured", domain.NewUnstructuredError("formgw", 500, "", nil), observability.OutcomeProtocol},
		{"other", errors.New("boom"), observability.OutcomeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, observability.Outcome(tt.err))
		})
	}
}

func TestSMSMetrics_Record(t *testing.T) {
	// Arrange
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	m, err := observability.NewSMSMetrics(provider.Meter("test"))
	require.NoError(t, err)
	ctx := context.Background()

	// Act
	m.RecordCall(ctx, "formgw", "send", nil)
	m.RecordCall(ctx, "formgw", "send", nil)
	m.RecordCall(ctx, "formgw", "send", domain.NewCodedError("formgw", 42, "bad number"))
	m.RecordTokenRefresh(ctx, "oauthgw", nil)

	// Assert
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, int64(2), sumFor(rm, "sms.requests",
		attribute.String("provider", "formgw"),
		attribute.String("operation", "send"),
		attribute.String("outcome", observability.OutcomeOK)))
	assert.Equal(t, int64(1), sumFor(rm, "sms.requests",
		attribute.String("provider", "formgw"),
		attribute.String("operation", "send"),
		attribute.String("outcome", observability.OutcomeRejected)))
	assert.Equal(t, int64(1), sumFor(rm, "sms.token.refreshes",
		attribute.String("provider", "oauthgw"),
		attribute.String("outcome", observability.OutcomeOK)))
}

func TestSMSMetrics_NilIsNoop(t *testing.T) {
	var m *observability.SMSMetrics

	assert.NotPanics(t, func() {
		m.RecordCall(context.Background(), "formgw", "send", nil)
		m.RecordTokenRefresh(context.Background(), "oauthgw", nil)
	})
}

func sumFor(rm metricdata.ResourceMetrics, name string, attrs ...attribute.KeyValue) int64 {
	want := attribute.NewSet(attrs...)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				if dp.Attributes.Equals(&want) {
					return dp.Value
				}
			}
		}
	}
	return 0
}
