// Package provider talks to the OAuth 1.0a identity provider: request tokens,
// the authorize hand-off, the access-token exchange and the profile fetch.
package provider

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/internal/metrics"
	"github.com/jrsteele09/go-oauth1-login/oauth1"
	"github.com/jrsteele09/go-oauth1-login/requesttokens"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName      = "github.com/jrsteele09/go-oauth1-login/provider"
	maxResponseSize = 1 << 20

	endpointRequestToken = "request_token"
	endpointAccessToken  = "access_token"
	endpointProfile      = "profile"
)

// Endpoints are the provider URLs used by the flow.
type Endpoints struct {
	RequestTokenURL string
	AuthorizeURL    string
	AccessTokenURL  string
	ProfileURL      string
	// ProfileParams are sent as query parameters on the profile request and signed with it.
	ProfileParams url.Values
}

// Credentials is a token pair returned by the provider.
type Credentials struct {
	Token       string
	TokenSecret string
}

// AccessTokenResponse is the outcome of a successful exchange. UserID and
// ScreenName are only filled when the provider includes them.
type AccessTokenResponse struct {
	Credentials
	UserID     string
	ScreenName string
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRetryBackoff sets the wait before the single retry of a transient failure.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff = d
	}
}

func WithMetrics(m metrics.MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// Client is safe for concurrent use. Every call blocks the calling goroutine and
// honours ctx.
type Client struct {
	signer     *oauth1.Signer
	endpoints  Endpoints
	httpClient *http.Client
	backoff    time.Duration
	metrics    metrics.MetricsCollector
	tracer     trace.Tracer
}

func NewClient(signer *oauth1.Signer, endpoints Endpoints, opts ...Option) *Client {
	c := &Client{
		signer:     signer,
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		backoff:    250 * time.Millisecond,
		metrics:    metrics.Nop{},
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AcquireRequestToken obtains an unauthorized request token bound to callbackURL.
func (c *Client) AcquireRequestToken(ctx context.Context, callbackURL string) (Credentials, error) {
	res, err := c.send(ctx, endpointRequestToken, oauth1.Request{
		Method:   http.MethodPost,
		URL:      c.endpoints.RequestTokenURL,
		Callback: callbackURL,
	}, true)
	if err != nil {
		return Credentials{}, err
	}
	if !res.ok() {
		return Credentials{}, errors.Wrapf(autherrors.ErrProviderUnavailable, "request token endpoint returned %d", res.status)
	}

	fields, err := oauth1.ParseForm(res.body, oauth1.RequestTokenSchema)
	if err != nil {
		var schemaErr *oauth1.SchemaError
		if errors.As(err, &schemaErr) && onlyMissing(schemaErr, oauth1.ParamCallbackConfirm) {
			return Credentials{}, errors.Wrap(autherrors.ErrCallbackNotConfirmed, "oauth_callback_confirmed absent")
		}
		return Credentials{}, errors.Wrapf(autherrors.ErrProviderUnavailable, "request token response: %v", err)
	}
	if fields[oauth1.ParamCallbackConfirm] != "true" {
		return Credentials{}, errors.Wrapf(autherrors.ErrCallbackNotConfirmed, "oauth_callback_confirmed=%q", fields[oauth1.ParamCallbackConfirm])
	}
	return Credentials{
		Token:       fields[oauth1.ParamToken],
		TokenSecret: fields[oauth1.ParamTokenSecret],
	}, nil
}

// AuthorizeURL returns where the user is sent to approve rt. Consumed and
// expired tokens are refused.
func (c *Client) AuthorizeURL(rt *requesttokens.RequestToken, now time.Time) (string, error) {
	if rt == nil || rt.Token == "" || !rt.Usable(now) {
		return "", autherrors.ErrInvalidOrExpiredToken
	}
	u, err := url.Parse(c.endpoints.AuthorizeURL)
	if err != nil {
		return "", errors.Wrap(err, "AuthorizeURL parse authorize endpoint")
	}
	q := u.Query()
	q.Set(oauth1.ParamToken, rt.Token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ExchangeAccessToken trades an authorized request token and its verifier for
// the access token. It is never retried: the request token is already spent.
func (c *Client) ExchangeAccessToken(ctx context.Context, requestToken, requestTokenSecret, verifier string) (AccessTokenResponse, error) {
	res, err := c.send(ctx, endpointAccessToken, oauth1.Request{
		Method:      http.MethodPost,
		URL:         c.endpoints.AccessTokenURL,
		Token:       requestToken,
		TokenSecret: requestTokenSecret,
		Verifier:    verifier,
	}, false)
	if err != nil {
		return AccessTokenResponse{}, err
	}
	switch {
	case res.transient():
		return AccessTokenResponse{}, errors.Wrapf(autherrors.ErrProviderUnavailable, "access token endpoint returned %d", res.status)
	case res.status >= 400:
		return AccessTokenResponse{}, errors.Wrapf(autherrors.ErrExchangeRejected, "access token endpoint returned %d", res.status)
	case !res.ok():
		return AccessTokenResponse{}, errors.Wrapf(autherrors.ErrProviderUnavailable, "access token endpoint returned %d", res.status)
	}

	fields, err := oauth1.ParseForm(res.body, oauth1.AccessTokenSchema)
	if err != nil {
		return AccessTokenResponse{}, errors.Wrapf(autherrors.ErrProviderUnavailable, "access token response: %v", err)
	}
	return AccessTokenResponse{
		Credentials: Credentials{
			Token:       fields[oauth1.ParamToken],
			TokenSecret: fields[oauth1.ParamTokenSecret],
		},
		UserID:     fields["user_id"],
		ScreenName: fields["screen_name"],
	}, nil
}

type result struct {
	status int
	body   []byte
}

func (r *result) ok() bool {
	return r.status >= 200 && r.status < 300
}

// transient covers the statuses worth one retry: 429 and 5xx.
func (r *result) transient() bool {
	return r.status == http.StatusTooManyRequests || r.status >= 500
}

// send performs one signed round trip, and when retry is set repeats it once
// after the backoff if the first attempt failed transiently.
func (c *Client) send(ctx context.Context, endpoint string, req oauth1.Request, retry bool) (*result, error) {
	res, err := c.roundTrip(ctx, endpoint, req)
	if !retry || !isTransient(res, err) {
		return res, err
	}

	log.Warn().Str("endpoint", endpoint).Dur("backoff", c.backoff).Msg("provider call failed, retrying once")
	timer := time.NewTimer(c.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return res, err
	case <-timer.C:
	}
	return c.roundTrip(ctx, endpoint, req)
}

func isTransient(res *result, err error) bool {
	if err != nil {
		return autherrors.IsRetryable(err)
	}
	return res.transient()
}

// roundTrip signs req with a fresh nonce and timestamp and sends it. Network
// failures come back as ErrProviderUnavailable; any HTTP status is a result.
func (c *Client) roundTrip(ctx context.Context, endpoint string, req oauth1.Request) (*result, error) {
	ctx, span := c.tracer.Start(ctx, "provider."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("oauth1.endpoint", endpoint), attribute.String("http.request.method", req.Method)),
	)
	defer span.End()

	sig, err := c.signer.Sign(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "signature")
		return nil, err
	}

	httpReq, err := newHTTPRequest(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request")
		return nil, errors.Wrapf(autherrors.ErrSignature, "build %s request: %v", endpoint, err)
	}
	httpReq.Header.Set("Authorization", sig.Header)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.RecordProviderCall(endpoint, 0, time.Since(started))
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, errors.Wrapf(autherrors.ErrProviderUnavailable, "%s: %v", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	c.metrics.RecordProviderCall(endpoint, resp.StatusCode, time.Since(started))
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, errors.Wrapf(autherrors.ErrProviderUnavailable, "%s read body: %v", endpoint, err)
	}
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, resp.Status)
	}

	log.Debug().Str("endpoint", endpoint).Int("status", resp.StatusCode).Dur("took", time.Since(started)).Msg("provider call")
	return &result{status: resp.StatusCode, body: body}, nil
}

// newHTTPRequest places Params in the query string for GET and in a form body otherwise.
func newHTTPRequest(ctx context.Context, req oauth1.Request) (*http.Request, error) {
	if req.Method == http.MethodGet {
		u, err := url.Parse(req.URL)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		for k, values := range req.Params {
			for _, v := range values {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		return http.NewRequestWithContext(ctx, req.Method, u.String(), nil)
	}

	var body io.Reader
	if len(req.Params) > 0 {
		body = strings.NewReader(req.Params.Encode())
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return httpReq, nil
}

func onlyMissing(err *oauth1.SchemaError, field string) bool {
	return len(err.Unexpected) == 0 && len(err.Repeated) == 0 &&
		len(err.Missing) == 1 && err.Missing[0] == field
}
