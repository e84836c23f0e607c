package config

import "strings"

type EnvVars struct {
	Port         string `env:"PORT"          envDefault:"8080"`
	AppName      string `env:"APP_NAME"      envDefault:"Go OAuth1 Login"`
	Environment  string `env:"ENV"           envDefault:"DEV"`
	BaseURL      string `env:"BASE_URL"      envDefault:"http://localhost:8080"`
	LogLevel     string `env:"LOG_LEVEL"     envDefault:"info"`
	OtelEndpoint string `env:"OTEL_ENDPOINT"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	if strings.HasPrefix(e.Port, ":") {
		return e.Port
	}
	return ":" + e.Port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	return e.Environment
}

// GetBaseURL returns the public base URL of this service (e.g. "https://login.example.com")
func (e EnvVars) GetBaseURL() string {
	return strings.TrimSuffix(e.BaseURL, "/")
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

// GetOtelEndpoint returns the OTLP/HTTP collector endpoint, empty when tracing is off.
func (e EnvVars) GetOtelEndpoint() string {
	return e.OtelEndpoint
}
