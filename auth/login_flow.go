package auth

import (
	"context"
	"net/url"
	"time"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/oauth1"
	"github.com/jrsteele09/go-oauth1-login/requesttokens"
	"github.com/jrsteele09/go-oauth1-login/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StartResult is where the user must be sent to approve the login.
type StartResult struct {
	AuthorizeURL string
	RequestToken string
	ExpiresAt    time.Time
}

// CallbackParams are the query parameters the provider appends to the callback.
type CallbackParams struct {
	OAuthToken    string
	OAuthVerifier string
	Denied        string
}

// CallbackParamsFromQuery reads the callback parameters from q.
func CallbackParamsFromQuery(q url.Values) CallbackParams {
	return CallbackParams{
		OAuthToken:    q.Get(oauth1.ParamToken),
		OAuthVerifier: q.Get(oauth1.ParamVerifier),
		Denied:        q.Get("denied"),
	}
}

// Start obtains a request token, stores it for the callback and returns the
// provider authorize URL. Nothing is stored when the provider call fails.
func (s *Service) Start(ctx context.Context) (*StartResult, error) {
	creds, err := s.provider.AcquireRequestToken(ctx, s.settings.CallbackURL)
	if err != nil {
		s.recordFailure(err, "", StateAwaitingCallback)
		return nil, errors.Wrap(err, "[Start] acquire request token")
	}

	now := s.nowTime()
	rt := &requesttokens.RequestToken{
		Token:       creds.Token,
		TokenSecret: creds.TokenSecret,
		CallbackURL: s.settings.CallbackURL,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.settings.RequestTokenTTL),
	}
	if err := s.repos.RequestTokens.Create(ctx, rt); err != nil {
		return nil, errors.Wrap(err, "[Start] store request token")
	}

	authorizeURL, err := s.provider.AuthorizeURL(rt, now)
	if err != nil {
		return nil, errors.Wrap(err, "[Start] authorize url")
	}

	s.metrics.RecordFlowStarted()
	log.Debug().Str("request_token", rt.Token).Time("expires_at", rt.ExpiresAt).Msg("login started")
	return &StartResult{
		AuthorizeURL: authorizeURL,
		RequestToken: rt.Token,
		ExpiresAt:    rt.ExpiresAt,
	}, nil
}

// Callback completes a login. The request token is consumed before anything is
// sent to the provider, so no failure after that point leaves it reusable.
func (s *Service) Callback(ctx context.Context, params CallbackParams) (*LoginResult, error) {
	f := &flow{requestToken: params.OAuthToken, state: StateAwaitingCallback, observer: s.observer}
	if params.Denied != "" {
		f.requestToken = params.Denied
		return nil, s.deny(ctx, f, params)
	}

	if params.OAuthToken == "" || params.OAuthVerifier == "" {
		return nil, s.failFlow(f, errors.Wrap(autherrors.ErrMalformedCallback, "oauth_token and oauth_verifier are required"))
	}

	f.advance(StateValidating)
	rt, err := s.repos.RequestTokens.Consume(ctx, params.OAuthToken, s.nowTime())
	if err != nil {
		return nil, s.failFlow(f, errors.Wrap(err, "[Callback] consume request token"))
	}

	f.advance(StateExchanging)
	exchanged, err := s.provider.ExchangeAccessToken(ctx, rt.Token, rt.TokenSecret, params.OAuthVerifier)
	if err != nil {
		return nil, s.failFlow(f, errors.Wrap(err, "[Callback] exchange"))
	}
	at := &token.AccessToken{
		Token:       exchanged.Token,
		TokenSecret: token.NewRedacted(exchanged.TokenSecret),
		ObtainedAt:  s.nowTime(),
	}

	f.advance(StateProfileFetching)
	profile, err := s.provider.FetchProfile(ctx, at)
	if err != nil {
		return nil, s.failFlow(f, errors.Wrap(err, "[Callback] fetch profile"))
	}
	if exchanged.UserID != "" && exchanged.UserID != profile.ProviderUserID {
		return nil, s.failFlow(f, errors.Wrapf(autherrors.ErrIncompleteProfile,
			"profile id %s does not match exchanged user %s", profile.ProviderUserID, exchanged.UserID))
	}

	result, err := s.Establish(ctx, profile, at)
	if err != nil {
		return nil, s.failFlow(f, errors.Wrap(err, "[Callback] establish"))
	}
	f.advance(StateEstablished)
	s.metrics.RecordFlowEstablished()

	if err := s.repos.RequestTokens.Delete(ctx, rt.Token); err != nil {
		log.Warn().Err(err).Str("request_token", rt.Token).Msg("could not delete consumed request token")
	}
	log.Info().
		Str("user_id", result.User.ID).
		Str("provider_user_id", profile.ProviderUserID).
		Str("session_id", result.Session.ID).
		Msg("login established")
	return result, nil
}

// deny consumes the denied token so it can never be exchanged and fails the flow
// with ErrUserDenied.
func (s *Service) deny(ctx context.Context, f *flow, params CallbackParams) error {
	if params.OAuthToken != "" && params.OAuthToken != params.Denied {
		return s.failFlow(f, errors.Wrap(autherrors.ErrMalformedCallback, "denied does not match oauth_token"))
	}

	f.advance(StateValidating)
	if _, err := s.repos.RequestTokens.Consume(ctx, params.Denied, s.nowTime()); err != nil {
		return s.failFlow(f, errors.Wrap(err, "[Callback] consume denied request token"))
	}
	return s.failFlow(f, errors.Wrap(autherrors.ErrUserDenied, "user declined authorization"))
}

func (s *Service) failFlow(f *flow, err error) error {
	s.recordFailure(err, f.requestToken, f.state)
	return f.fail(err)
}

// recordFailure logs protocol failures at warn and everything else at error.
func (s *Service) recordFailure(err error, requestToken string, state FlowState) {
	reason := autherrors.Reason(err)
	s.metrics.RecordFlowFailed(reason)

	level := zerolog.ErrorLevel
	if autherrors.IsProtocol(err) || autherrors.IsRetryable(err) {
		level = zerolog.WarnLevel
	}
	log.WithLevel(level).
		Err(err).
		Str("reason", reason).
		Str("state", state.String()).
		Str("request_token", requestToken).
		Msg("login failed")
}
