package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{
		ServiceName:       "calwhisper",
		Enabled:           true,
		MetricsExporter:   ExporterPrometheus,
		TracingExporter:   ExporterNone,
		TraceSamplingRate: 0.1,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "sampling rate above one",
			mutate:  func(c *Config) { c.TraceSamplingRate = 1.5 },
			wantErr: "sampling rate",
		},
		{
			name:    "unknown metrics exporter",
			mutate:  func(c *Config) { c.MetricsExporter = "statsd" },
			wantErr: "invalid metrics exporter",
		},
		{
			name:    "unknown tracing exporter",
			mutate:  func(c *Config) { c.TracingExporter = "jaeger" },
			wantErr: "invalid tracing exporter",
		},
		{
			name:    "otlp metrics without endpoint",
			mutate:  func(c *Config) { c.MetricsExporter = ExporterOTLP },
			wantErr: "OTLP endpoint is required",
		},
		{
			name:    "otlp tracing without endpoint",
			mutate:  func(c *Config) { c.TracingExporter = ExporterOTLP },
			wantErr: "OTLP endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDisabledProviderIsNoop(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	require.NotNil(t, p.Metrics())
	assert.NotNil(t, p.Tracer("test"))
	assert.NoError(t, p.Shutdown(context.Background()))

	// Zero-value recorders must not panic.
	ctx := context.Background()
	p.Metrics().RecordHTTPRequest(ctx, "GET", "/mcp", 200, time.Millisecond)
	p.Metrics().RecordToolInvocation(ctx, "query_google_calendar", "success", time.Millisecond)
	p.Metrics().RecordModelRequest(ctx, "test-model", "error", time.Second)
	p.Metrics().RecordCalendarOperation(ctx, "list_events", "success", time.Millisecond)
}

func TestNewMetricsRegistersInstruments(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordHTTPRequest(ctx, "POST", "/mcp", 200, 5*time.Millisecond)
	m.RecordToolInvocation(ctx, "create_calendar_event", "success", 10*time.Millisecond)
	m.RecordModelRequest(ctx, "resolver", "success", time.Second)
	m.RecordCalendarOperation(ctx, "insert_event", "error", 20*time.Millisecond)
}

func TestProviderWithStdoutMetrics(t *testing.T) {
	cfg := Config{
		ServiceName:     "calwhisper",
		ServiceVersion:  "test",
		Enabled:         true,
		MetricsExporter: ExporterStdout,
		TracingExporter: ExporterNone,
	}
	p, err := NewProvider(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	assert.True(t, p.Enabled())
	assert.NotNil(t, p.Metrics())
}
