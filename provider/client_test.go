package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/oauth1"
	"github.com/jrsteele09/go-oauth1-login/provider"
	"github.com/jrsteele09/go-oauth1-login/provider/providertest"
	"github.com/jrsteele09/go-oauth1-login/requesttokens"
	"github.com/jrsteele09/go-oauth1-login/token"
	"github.com/stretchr/testify/require"
)

const (
	consumerKey    = "ck"
	consumerSecret = "cs"
	callbackURL    = "http://localhost:8080/auth/callback"
)

type testFixture struct {
	server *providertest.Server
	client *provider.Client
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	server := providertest.NewServer(t, consumerKey, consumerSecret)
	client := provider.NewClient(oauth1.NewSigner(consumerKey, consumerSecret), server.Endpoints(),
		provider.WithRetryBackoff(time.Millisecond))
	return &testFixture{server: server, client: client}
}

func TestAcquireRequestToken_Success(t *testing.T) {
	f := setupTestFixture(t)
	creds, err := f.client.AcquireRequestToken(context.Background(), callbackURL)
	require.NoError(t, err)
	require.Equal(t, provider.Credentials{Token: "T1", TokenSecret: "S1"}, creds)
}

func TestAcquireRequestToken_CallbackNotConfirmed(t *testing.T) {
	f := setupTestFixture(t)
	f.server.SetCallbackConfirmed("false")
	_, err := f.client.AcquireRequestToken(context.Background(), callbackURL)
	require.ErrorIs(t, err, autherrors.ErrCallbackNotConfirmed)
}

func TestAcquireRequestToken_RetriesOnceOn5xx(t *testing.T) {
	f := setupTestFixture(t)
	f.server.SetFailures(providertest.RequestTokenPath, http.StatusServiceUnavailable)

	creds, err := f.client.AcquireRequestToken(context.Background(), callbackURL)
	require.NoError(t, err)
	require.Equal(t, "T1", creds.Token)
	require.Equal(t, 2, f.server.Calls(providertest.RequestTokenPath))
}

func TestAcquireRequestToken_GivesUpAfterSecond5xx(t *testing.T) {
	f := setupTestFixture(t)
	f.server.SetFailures(providertest.RequestTokenPath, http.StatusBadGateway, http.StatusBadGateway)

	_, err := f.client.AcquireRequestToken(context.Background(), callbackURL)
	require.ErrorIs(t, err, autherrors.ErrProviderUnavailable)
	require.Equal(t, 2, f.server.Calls(providertest.RequestTokenPath))
}

func TestAcquireRequestToken_BadConsumer(t *testing.T) {
	server := providertest.NewServer(t, consumerKey, consumerSecret)
	client := provider.NewClient(oauth1.NewSigner(consumerKey, "wrong"), server.Endpoints())

	_, err := client.AcquireRequestToken(context.Background(), callbackURL)
	require.ErrorIs(t, err, autherrors.ErrProviderUnavailable)
	require.Equal(t, 1, server.Calls(providertest.RequestTokenPath))
}

func TestAcquireRequestToken_Unreachable(t *testing.T) {
	client := provider.NewClient(oauth1.NewSigner(consumerKey, consumerSecret), provider.Endpoints{
		RequestTokenURL: "http://127.0.0.1:1/oauth/request_token",
	}, provider.WithRetryBackoff(time.Millisecond))

	_, err := client.AcquireRequestToken(context.Background(), callbackURL)
	require.ErrorIs(t, err, autherrors.ErrProviderUnavailable)
}

func TestAcquireRequestToken_MalformedEndpoint(t *testing.T) {
	client := provider.NewClient(oauth1.NewSigner(consumerKey, consumerSecret), provider.Endpoints{
		RequestTokenURL: "not a url",
	})
	_, err := client.AcquireRequestToken(context.Background(), callbackURL)
	require.ErrorIs(t, err, autherrors.ErrSignature)
}

func TestAcquireRequestToken_UnexpectedFields(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("oauth_token=T1&oauth_token_secret=S1&oauth_callback_confirmed=true&debug=1"))
	}))
	defer stub.Close()

	client := provider.NewClient(oauth1.NewSigner(consumerKey, consumerSecret), provider.Endpoints{RequestTokenURL: stub.URL})
	_, err := client.AcquireRequestToken(context.Background(), callbackURL)
	require.ErrorIs(t, err, autherrors.ErrProviderUnavailable)
}

func TestAuthorizeURL(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	client := provider.NewClient(oauth1.NewSigner(consumerKey, consumerSecret), provider.Endpoints{
		AuthorizeURL: "https://api.twitter.com/oauth/authenticate?force_login=true",
	})

	u, err := client.AuthorizeURL(&requesttokens.RequestToken{Token: "T1", ExpiresAt: now.Add(time.Minute)}, now)
	require.NoError(t, err)
	parsed, err := url.Parse(u)
	require.NoError(t, err)
	require.Equal(t, "api.twitter.com", parsed.Host)
	require.Equal(t, "T1", parsed.Query().Get("oauth_token"))
	require.Equal(t, "true", parsed.Query().Get("force_login"))

	_, err = client.AuthorizeURL(&requesttokens.RequestToken{Token: "T1", ExpiresAt: now}, now)
	require.ErrorIs(t, err, autherrors.ErrInvalidOrExpiredToken)

	_, err = client.AuthorizeURL(&requesttokens.RequestToken{Token: "T1", ExpiresAt: now.Add(time.Minute), Consumed: true}, now)
	require.ErrorIs(t, err, autherrors.ErrInvalidOrExpiredToken)
}

func TestExchangeAccessToken_Success(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	creds, err := f.client.AcquireRequestToken(ctx, callbackURL)
	require.NoError(t, err)
	verifier := f.server.Approve(creds.Token)

	res, err := f.client.ExchangeAccessToken(ctx, creds.Token, creds.TokenSecret, verifier)
	require.NoError(t, err)
	require.Equal(t, "A1", res.Token)
	require.Equal(t, "AS1", res.TokenSecret)
	require.Equal(t, "42", res.UserID)
	require.Equal(t, "jane", res.ScreenName)
}

func TestExchangeAccessToken_WrongVerifierRejected(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	creds, err := f.client.AcquireRequestToken(ctx, callbackURL)
	require.NoError(t, err)
	f.server.Approve(creds.Token)

	_, err = f.client.ExchangeAccessToken(ctx, creds.Token, creds.TokenSecret, "forged")
	require.ErrorIs(t, err, autherrors.ErrExchangeRejected)
}

func TestExchangeAccessToken_NeverRetried(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	creds, err := f.client.AcquireRequestToken(ctx, callbackURL)
	require.NoError(t, err)
	verifier := f.server.Approve(creds.Token)
	f.server.SetFailures(providertest.AccessTokenPath, http.StatusInternalServerError)

	_, err = f.client.ExchangeAccessToken(ctx, creds.Token, creds.TokenSecret, verifier)
	require.ErrorIs(t, err, autherrors.ErrProviderUnavailable)
	require.Equal(t, 1, f.server.Calls(providertest.AccessTokenPath))
}

func exchange(t *testing.T, f *testFixture) *token.AccessToken {
	t.Helper()
	ctx := context.Background()
	creds, err := f.client.AcquireRequestToken(ctx, callbackURL)
	require.NoError(t, err)
	res, err := f.client.ExchangeAccessToken(ctx, creds.Token, creds.TokenSecret, f.server.Approve(creds.Token))
	require.NoError(t, err)
	return &token.AccessToken{Token: res.Token, TokenSecret: token.NewRedacted(res.TokenSecret)}
}

func TestFetchProfile_Success(t *testing.T) {
	f := setupTestFixture(t)
	at := exchange(t, f)

	profile, err := f.client.FetchProfile(context.Background(), at)
	require.NoError(t, err)
	require.Equal(t, &provider.Profile{
		ProviderUserID: "42",
		DisplayName:    "Jane",
		Handle:         "jane",
		FollowerCount:  7,
		FollowingCount: 3,
	}, profile)
	require.Equal(t, "true", f.server.LastProfileQuery().Get("include_email"))
}

func TestFetchProfile_RetriesOnceOn429(t *testing.T) {
	f := setupTestFixture(t)
	at := exchange(t, f)
	f.server.SetFailures(providertest.ProfilePath, http.StatusTooManyRequests)

	_, err := f.client.FetchProfile(context.Background(), at)
	require.NoError(t, err)
	require.Equal(t, 2, f.server.Calls(providertest.ProfilePath))
}

func TestFetchProfile_NoRetryOn4xx(t *testing.T) {
	f := setupTestFixture(t)
	at := exchange(t, f)
	f.server.SetFailures(providertest.ProfilePath, http.StatusForbidden)

	_, err := f.client.FetchProfile(context.Background(), at)
	require.ErrorIs(t, err, autherrors.ErrProviderUnavailable)
	require.Equal(t, 1, f.server.Calls(providertest.ProfilePath))
}

func TestFetchProfile_CancelledDuringBackoff(t *testing.T) {
	server := providertest.NewServer(t, consumerKey, consumerSecret)
	client := provider.NewClient(oauth1.NewSigner(consumerKey, consumerSecret), server.Endpoints(),
		provider.WithRetryBackoff(time.Hour))
	at := exchange(t, &testFixture{server: server, client: client})
	server.SetFailures(providertest.ProfilePath, http.StatusServiceUnavailable)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.FetchProfile(ctx, at)
	require.ErrorIs(t, err, autherrors.ErrProviderUnavailable)
	require.Equal(t, 1, server.Calls(providertest.ProfilePath))
}

func TestFetchProfile_Incomplete(t *testing.T) {
	f := setupTestFixture(t)
	at := exchange(t, f)
	f.server.SetProfileBody(`{"id_str":"42","name":"Jane"}`)

	_, err := f.client.FetchProfile(context.Background(), at)
	require.ErrorIs(t, err, autherrors.ErrIncompleteProfile)
}

func TestParseProfile(t *testing.T) {
	profile, err := provider.ParseProfile([]byte(`{"id_str":"42","id":42,"name":"Jane","screen_name":"jane","email":"jane@example.com","followers_count":10,"friends_count":2}`))
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", *profile.Email)
	require.Equal(t, 10, profile.FollowerCount)
	require.Equal(t, 2, profile.FollowingCount)

	profile, err = provider.ParseProfile([]byte(`{"id_str":"42","name":"Jane","screen_name":"jane","email":""}`))
	require.NoError(t, err)
	require.Nil(t, profile.Email)

	for _, body := range []string{`{}`, `not json`, `{"id_str":"","name":"Jane","screen_name":"jane"}`, `{"id_str":"42","screen_name":"jane"}`} {
		_, err := provider.ParseProfile([]byte(body))
		require.ErrorIs(t, err, autherrors.ErrIncompleteProfile, body)
	}
}
