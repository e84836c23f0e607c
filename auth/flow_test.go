package auth_test

import (
	"testing"

	"github.com/jrsteele09/go-oauth1-login/auth"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	require.True(t, auth.CanTransition(auth.StateAwaitingCallback, auth.StateValidating))
	require.True(t, auth.CanTransition(auth.StateValidating, auth.StateExchanging))
	require.True(t, auth.CanTransition(auth.StateExchanging, auth.StateProfileFetching))
	require.True(t, auth.CanTransition(auth.StateProfileFetching, auth.StateEstablished))

	for _, from := range []auth.FlowState{auth.StateAwaitingCallback, auth.StateValidating, auth.StateExchanging, auth.StateProfileFetching} {
		require.True(t, auth.CanTransition(from, auth.StateFailed), from.String())
	}

	require.False(t, auth.CanTransition(auth.StateAwaitingCallback, auth.StateExchanging))
	require.False(t, auth.CanTransition(auth.StateValidating, auth.StateProfileFetching))
	require.False(t, auth.CanTransition(auth.StateEstablished, auth.StateFailed))
	require.False(t, auth.CanTransition(auth.StateFailed, auth.StateValidating))
}

func TestFlowState_String(t *testing.T) {
	require.Equal(t, "profile_fetching", auth.StateProfileFetching.String())
	require.Equal(t, "flow_state(42)", auth.FlowState(42).String())
}
