package tracing_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/phrazzld/scry-studygen/internal/config"
	"github.com/phrazzld/scry-studygen/internal/platform/logger"
	"github.com/phrazzld/scry-studygen/internal/platform/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupDisabled(t *testing.T) {
	var buf bytes.Buffer
	tp, shutdown, err := tracing.Setup(config.TracingConfig{Enabled: false, ServiceName: "svc"}, &buf, nil)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "noop")
	span.End()

	assert.False(t, span.SpanContext().IsValid())
	require.NoError(t, shutdown(context.Background()))
	assert.Zero(t, buf.Len())
}

func TestSetupExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	l, logs := logger.GetTestLogger(t)

	tp, shutdown, err := tracing.Setup(config.TracingConfig{Enabled: true, ServiceName: "scry-studygen"}, &buf, l)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "pipeline.run")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), `"Name":"pipeline.run"`)
	assert.Contains(t, buf.String(), "scry-studygen")
	logger.AssertLogContains(t, logs, "otel tracing initialized")
}
