package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/go-oauth1-login/internal/metrics"
	"github.com/jrsteele09/go-oauth1-login/provider"
	"github.com/jrsteele09/go-oauth1-login/requesttokens"
	"github.com/jrsteele09/go-oauth1-login/sessions"
	"github.com/jrsteele09/go-oauth1-login/token"
	"github.com/jrsteele09/go-oauth1-login/users"
	"github.com/pkg/errors"
)

// Provider is the part of the identity provider the login flow depends on.
type Provider interface {
	AcquireRequestToken(ctx context.Context, callbackURL string) (provider.Credentials, error)
	AuthorizeURL(rt *requesttokens.RequestToken, now time.Time) (string, error)
	ExchangeAccessToken(ctx context.Context, requestToken, requestTokenSecret, verifier string) (provider.AccessTokenResponse, error)
	FetchProfile(ctx context.Context, at *token.AccessToken) (*provider.Profile, error)
}

var _ Provider = (*provider.Client)(nil)

// Repos holds all repository dependencies for the Service
type Repos struct {
	RequestTokens requesttokens.Repo    // Token Store shared by Start and Callback
	Users         users.UserRepo        // Local users keyed by provider user id
	AccessTokens  token.AccessTokenRepo // Latest provider access token per user
	Sessions      sessions.Repo         // Established sessions
}

// Settings are the flow parameters taken from configuration.
type Settings struct {
	CallbackURL     string
	RequestTokenTTL time.Duration
	SessionTTL      time.Duration
}

// Service runs the OAuth 1.0a login: Start hands the user to the provider,
// Callback completes the login when the provider sends them back.
type Service struct {
	repos       Repos
	provider    Provider
	tokenSigner *sessions.TokenSigner
	settings    Settings
	nowTime     func() time.Time
	observer    StateObserver
	metrics     metrics.MetricsCollector
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithStateObserver registers an observer for callback state transitions.
func WithStateObserver(observer StateObserver) ServiceOption {
	return func(s *Service) {
		s.observer = observer
	}
}

func WithMetrics(m metrics.MetricsCollector) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService initializes a Service with its required dependencies.
func NewService(repos Repos, p Provider, tokenSigner *sessions.TokenSigner, settings Settings, options ...ServiceOption) (*Service, error) {
	if repos.RequestTokens == nil {
		return nil, errors.New("[NewService] RequestTokens repo is required")
	}
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.AccessTokens == nil {
		return nil, errors.New("[NewService] AccessTokens repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions repo is required")
	}
	if p == nil {
		return nil, errors.New("[NewService] provider is required")
	}
	if tokenSigner == nil {
		return nil, errors.New("[NewService] tokenSigner is required")
	}
	if settings.CallbackURL == "" {
		return nil, errors.New("[NewService] callback URL is required")
	}
	if settings.RequestTokenTTL <= 0 || settings.SessionTTL <= 0 {
		return nil, errors.New("[NewService] request token and session TTLs must be positive")
	}

	s := &Service{
		repos:       repos,
		provider:    p,
		tokenSigner: tokenSigner,
		settings:    settings,
		nowTime:     time.Now,
		metrics:     metrics.Nop{},
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}
