package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

type Config interface {
	EnvConfig
	OAuth1Config
	SessionConfig
	StorageConfig
	CorsConfig
	Validate() error
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetLogLevel() string
	GetOtelEndpoint() string
}

type mainConfig struct {
	EnvVars
	OAuth1
	Session
	Storage
	Cors
}

var _ Config = mainConfig{}

// New loads the configuration from the process environment.
func New() (Config, error) {
	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, errors.Wrap(err, "config.New parse environment")
	}
	return c, nil
}

// NewFromMap loads the configuration from vars instead of the process environment.
func NewFromMap(vars map[string]string) (Config, error) {
	var c mainConfig
	if err := env.ParseWithOptions(&c, env.Options{Environment: vars}); err != nil {
		return nil, errors.Wrap(err, "config.NewFromMap parse environment")
	}
	return c, nil
}

// GetCallbackURL returns OAUTH1_CALLBACK_URL, or the callback route under BASE_URL when unset.
func (c mainConfig) GetCallbackURL() string {
	if c.CallbackURL != "" {
		return c.CallbackURL
	}
	return c.GetBaseURL() + "/auth/callback"
}

// Validate reports settings the service cannot start without.
func (c mainConfig) Validate() error {
	var missing []string
	if c.ConsumerKey == "" {
		missing = append(missing, "OAUTH1_CONSUMER_KEY")
	}
	if c.ConsumerSecret == "" {
		missing = append(missing, "OAUTH1_CONSUMER_SECRET")
	}
	if c.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required configuration: %v", missing)
	}
	if c.TokenSealKey != "" && len(c.GetTokenSealKey()) != 32 {
		return errors.New("TOKEN_SEAL_KEY must be 32 bytes, hex or raw")
	}
	switch c.Driver {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres storage driver")
		}
	default:
		return errors.Errorf("unknown STORAGE_DRIVER %q", c.Driver)
	}
	return nil
}
