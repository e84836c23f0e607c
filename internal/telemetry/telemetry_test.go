package telemetry_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-oauth1-login/internal/telemetry"
	"github.com/stretchr/testify/require"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), "oauth1-login", "")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
