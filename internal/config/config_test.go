package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth1-login/internal/config"
	"github.com/stretchr/testify/require"
)

func validVars() map[string]string {
	return map[string]string{
		"OAUTH1_CONSUMER_KEY":    "ck",
		"OAUTH1_CONSUMER_SECRET": "cs",
		"OAUTH1_CALLBACK_URL":    "http://localhost:8080/auth/callback",
		"SESSION_SECRET":         "session-secret",
	}
}

func TestNewFromMap_Defaults(t *testing.T) {
	c, err := config.NewFromMap(validVars())
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, 10*time.Minute, c.GetRequestTokenTTL())
	require.Equal(t, 24*time.Hour, c.GetSessionTTL())
	require.Equal(t, 250*time.Millisecond, c.GetRetryBackoff())
	require.Equal(t, config.StorageMemory, c.GetStorageDriver())
	require.Equal(t, "https://api.twitter.com/oauth/request_token", c.GetRequestTokenURL())
	require.Equal(t, "true", c.GetProfileParams().Get("include_email"))
	require.Nil(t, c.GetTokenSealKey())
	require.Empty(t, c.GetAllowedOrigins())
}

func TestNewFromMap_Overrides(t *testing.T) {
	vars := validVars()
	vars["PORT"] = ":9000"
	vars["SESSION_TTL"] = "1h"
	vars["ALLOWED_ORIGINS"] = "https://a.example, https://b.example"
	vars["TOKEN_SEAL_KEY"] = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	vars["BASE_URL"] = "https://login.example.com/"

	c, err := config.NewFromMap(vars)
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, time.Hour, c.GetSessionTTL())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://b.example"))
	require.Len(t, c.GetTokenSealKey(), 32)
	require.Equal(t, "https://login.example.com", c.GetBaseURL())
}

func TestValidate_MissingCredentials(t *testing.T) {
	c, err := config.NewFromMap(map[string]string{})
	require.NoError(t, err)
	err = c.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "OAUTH1_CONSUMER_KEY")
	require.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestValidate_StorageDriver(t *testing.T) {
	vars := validVars()
	vars["STORAGE_DRIVER"] = "postgres"
	c, err := config.NewFromMap(vars)
	require.NoError(t, err)
	require.ErrorContains(t, c.Validate(), "DATABASE_URL")

	vars["STORAGE_DRIVER"] = "mongo"
	c, err = config.NewFromMap(vars)
	require.NoError(t, err)
	require.ErrorContains(t, c.Validate(), "unknown STORAGE_DRIVER")
}

func TestValidate_SealKeyLength(t *testing.T) {
	vars := validVars()
	vars["TOKEN_SEAL_KEY"] = "too-short"
	c, err := config.NewFromMap(vars)
	require.NoError(t, err)
	require.ErrorContains(t, c.Validate(), "TOKEN_SEAL_KEY")
}

func TestGetCallbackURL_FallsBackToBaseURL(t *testing.T) {
	vars := validVars()
	delete(vars, "OAUTH1_CALLBACK_URL")
	vars["BASE_URL"] = "https://login.example.com/"

	c, err := config.NewFromMap(vars)
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	require.Equal(t, "https://login.example.com/auth/callback", c.GetCallbackURL())
}
