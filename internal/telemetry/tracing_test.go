package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/Togather-Foundation/eventboard/internal/config"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{Enabled: false}, "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitTracingRejectsBadConfig(t *testing.T) {
	ctx := context.Background()

	_, err := initTracing(ctx, config.TracingConfig{Enabled: true, Exporter: "none", SampleRate: 1.5}, "test", &bytes.Buffer{})
	require.Error(t, err)

	_, err = initTracing(ctx, config.TracingConfig{Enabled: true, Exporter: "zipkin", SampleRate: 1}, "test", &bytes.Buffer{})
	require.Error(t, err)

	_, err = initTracing(ctx, config.TracingConfig{Enabled: true, Exporter: "otlp", SampleRate: 1}, "test", &bytes.Buffer{})
	require.Error(t, err)
}

func TestInitTracingStdoutExportsSpans(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	var out bytes.Buffer
	ctx := context.Background()
	shutdown, err := initTracing(ctx, config.TracingConfig{
		Enabled:     true,
		Exporter:    "stdout",
		ServiceName: "eventboard-test",
		SampleRate:  1.0,
	}, "v0.0.1", &out)
	require.NoError(t, err)

	_, span := Tracer("telemetry-test").Start(ctx, "unit-span")
	span.End()

	require.NoError(t, shutdown(ctx))
	require.Contains(t, out.String(), "unit-span")
	require.Contains(t, out.String(), "eventboard-test")
}

func TestNewSampler(t *testing.T) {
	require.Equal(t, "AlwaysOnSampler", newSampler(1).Description())
	require.Equal(t, "AlwaysOffSampler", newSampler(0).Description())
	require.Contains(t, newSampler(0.5).Description(), "TraceIDRatioBased")
}
