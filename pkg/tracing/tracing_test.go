package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSpan_NoTracer(t *testing.T) {
	ctx := context.Background()
	got, span := StartSpan(ctx, "test")
	defer span.End()

	assert.Equal(t, ctx, got)
	assert.Empty(t, GetTraceID(got))
}

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_UnknownProtocol(t *testing.T) {
	_, err := Setup(context.Background(), Config{Enabled: true, Protocol: "udp"})
	assert.Error(t, err)
}
