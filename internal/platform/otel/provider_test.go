package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"votacao/internal/platform/config"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.Telemetry{ServiceName: "votacao"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_WithEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.Telemetry{
		Endpoint:    "http://127.0.0.1:4318",
		ServiceName: "votacao",
	})
	require.NoError(t, err)
	// Nothing was exported, so shutdown does not need the collector.
	require.NoError(t, shutdown(context.Background()))
}
