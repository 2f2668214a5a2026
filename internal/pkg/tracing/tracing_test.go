package tracing

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/Kargones/backupchain/internal/pkg/logging"
)

func TestGenerateTraceID(t *testing.T) {
	hex32 := regexp.MustCompile(`^[0-9a-f]{32}$`)
	seen := make(map[string]bool)
	for range 100 {
		id := GenerateTraceID()
		require.Regexp(t, hex32, id)
		assert.False(t, seen[id], "повтор trace ID %s", id)
		seen[id] = true
	}
}

func TestTraceIDContext(t *testing.T) {
	ctx := WithTraceID(context.Background(), "abc")
	assert.Equal(t, "abc", TraceIDFromContext(ctx))
	assert.Empty(t, TraceIDFromContext(context.Background()))
	assert.Empty(t, TraceIDFromContext(nil)) //nolint:staticcheck // nil context допустим
}

func TestContextWithOTelTraceID(t *testing.T) {
	id := GenerateTraceID()
	sc := trace.SpanContextFromContext(ContextWithOTelTraceID(context.Background(), id))
	assert.True(t, sc.IsRemote())
	assert.Equal(t, id, sc.TraceID().String())

	ctx := context.Background()
	assert.Equal(t, ctx, ContextWithOTelTraceID(ctx, "not-hex"))
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	valid.Enabled = true
	valid.Endpoint = "http://jaeger:4318"

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{name: "корректная", mutate: func(*Config) {}},
		{name: "выключен", mutate: func(c *Config) { c.Enabled = false; c.Endpoint = "" }},
		{name: "нет endpoint", mutate: func(c *Config) { c.Endpoint = "" }, wantErr: ErrTracingEndpointRequired},
		{name: "endpoint без host", mutate: func(c *Config) { c.Endpoint = "jaeger" }, wantErr: ErrTracingEndpointInvalidFormat},
		{name: "нет service name", mutate: func(c *Config) { c.ServiceName = "" }, wantErr: ErrTracingServiceNameRequired},
		{name: "таймаут", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: ErrTracingTimeoutInvalid},
		{name: "sampling rate", mutate: func(c *Config) { c.SamplingRate = 1.5 }, wantErr: ErrTracingSamplingRateInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewTracerProvider(t *testing.T) {
	shutdown, err := NewTracerProvider(DefaultConfig(), logging.NewNopLogger())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, err = NewTracerProvider(Config{Enabled: true}, logging.NewNopLogger())
	assert.ErrorIs(t, err, ErrTracingEndpointRequired)

	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = "http://127.0.0.1:4318"
	cfg.Insecure = true
	cfg.Timeout = 100 * time.Millisecond
	shutdown, err = NewTracerProvider(cfg, logging.NewNopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	// без span-ов shutdown не обращается к коллектору
	assert.NoError(t, shutdown(ctx))
}
