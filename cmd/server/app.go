package main

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-oauth1-login/auth"
	"github.com/jrsteele09/go-oauth1-login/internal/config"
	"github.com/jrsteele09/go-oauth1-login/internal/logging"
	"github.com/jrsteele09/go-oauth1-login/internal/metrics"
	"github.com/jrsteele09/go-oauth1-login/oauth1"
	"github.com/jrsteele09/go-oauth1-login/provider"
	"github.com/jrsteele09/go-oauth1-login/requesttokens"
	"github.com/jrsteele09/go-oauth1-login/sessions"
	"github.com/jrsteele09/go-oauth1-login/storage"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app is everything both commands share.
type app struct {
	config   config.Config
	backend  *storage.Backend
	registry *prometheus.Registry
	metrics  *metrics.Collector
}

// loadApp reads and validates configuration, configures logging and opens storage.
func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.GetLogLevel(), cfg.GetEnv())
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	backend, err := storage.Open(ctx, cfg, cfg.GetTokenSealKey())
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &app{
		config:   cfg,
		backend:  backend,
		registry: registry,
		metrics:  metrics.NewCollector(registry),
	}, nil
}

func (a *app) Close() error {
	return a.backend.Close()
}

func (a *app) newAuthService() (*auth.Service, error) {
	cfg := a.config
	client := provider.NewClient(
		oauth1.NewSigner(cfg.GetConsumerKey(), cfg.GetConsumerSecret()),
		provider.Endpoints{
			RequestTokenURL: cfg.GetRequestTokenURL(),
			AuthorizeURL:    cfg.GetAuthorizeURL(),
			AccessTokenURL:  cfg.GetAccessTokenURL(),
			ProfileURL:      cfg.GetProfileURL(),
			ProfileParams:   cfg.GetProfileParams(),
		},
		provider.WithHTTPClient(&http.Client{Timeout: cfg.GetHTTPTimeout()}),
		provider.WithRetryBackoff(cfg.GetRetryBackoff()),
		provider.WithMetrics(a.metrics),
	)

	return auth.NewService(
		auth.Repos{
			RequestTokens: a.backend.RequestTokens,
			Users:         a.backend.Users,
			AccessTokens:  a.backend.AccessTokens,
			Sessions:      a.backend.Sessions,
		},
		client,
		sessions.NewTokenSigner(cfg.GetSessionSecret()),
		auth.Settings{
			CallbackURL:     cfg.GetCallbackURL(),
			RequestTokenTTL: cfg.GetRequestTokenTTL(),
			SessionTTL:      cfg.GetSessionTTL(),
		},
		auth.WithMetrics(a.metrics),
	)
}

func (a *app) newSweeper() *requesttokens.Sweeper {
	return requesttokens.NewSweeper(a.backend.RequestTokens, a.config.GetSweepInterval(),
		requesttokens.WithSweeperMetrics(a.metrics),
		requesttokens.WithPurger("sessions", a.backend.Sessions),
	)
}
