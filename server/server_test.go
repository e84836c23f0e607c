package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jrsteele09/go-oauth1-login/auth"
	"github.com/jrsteele09/go-oauth1-login/internal/config"
	"github.com/jrsteele09/go-oauth1-login/internal/metrics"
	"github.com/jrsteele09/go-oauth1-login/oauth1"
	"github.com/jrsteele09/go-oauth1-login/provider"
	"github.com/jrsteele09/go-oauth1-login/provider/providertest"
	fakerequesttokenrepo "github.com/jrsteele09/go-oauth1-login/requesttokens/repofake"
	"github.com/jrsteele09/go-oauth1-login/server"
	"github.com/jrsteele09/go-oauth1-login/sessions"
	fakesessionrepo "github.com/jrsteele09/go-oauth1-login/sessions/repofake"
	tokenfakerepo "github.com/jrsteele09/go-oauth1-login/token/repofake"
	fakeuserrepo "github.com/jrsteele09/go-oauth1-login/users/repofake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// testFixture holds all test dependencies
type testFixture struct {
	provider *providertest.Server
	http     *httptest.Server
	client   *http.Client
}

func setupTestFixture(t *testing.T, vars map[string]string) *testFixture {
	t.Helper()

	env := map[string]string{
		"ENV":                    "TEST",
		"OAUTH1_CONSUMER_KEY":    "ck",
		"OAUTH1_CONSUMER_SECRET": "cs",
		"OAUTH1_CALLBACK_URL":    "http://localhost:8080/auth/callback",
		"SESSION_SECRET":         "session-secret",
		"POST_LOGIN_REDIRECT":    "/welcome",
		"ALLOWED_ORIGINS":        "https://app.example.com",
	}
	for k, v := range vars {
		env[k] = v
	}
	cfg, err := config.NewFromMap(env)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	fakeProvider := providertest.NewServer(t, cfg.GetConsumerKey(), cfg.GetConsumerSecret())
	client := provider.NewClient(oauth1.NewSigner(cfg.GetConsumerKey(), cfg.GetConsumerSecret()), fakeProvider.Endpoints(),
		provider.WithRetryBackoff(time.Millisecond))

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	service, err := auth.NewService(
		auth.Repos{
			RequestTokens: fakerequesttokenrepo.NewFakeRequestTokenRepo(),
			Users:         fakeuserrepo.NewFakeUserRepo(),
			AccessTokens:  tokenfakerepo.NewFakeTokensRepo(),
			Sessions:      fakesessionrepo.NewFakeSessionRepo(),
		},
		client,
		sessions.NewTokenSigner(cfg.GetSessionSecret()),
		auth.Settings{CallbackURL: cfg.GetCallbackURL(), RequestTokenTTL: cfg.GetRequestTokenTTL(), SessionTTL: cfg.GetSessionTTL()},
		auth.WithMetrics(collector),
	)
	require.NoError(t, err)

	srv, err := server.New(cfg, service, server.WithMetrics(collector, registry))
	require.NoError(t, err)

	httpServer := httptest.NewServer(srv)
	t.Cleanup(httpServer.Close)

	return &testFixture{
		provider: fakeProvider,
		http:     httpServer,
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}
}

func (f *testFixture) do(t *testing.T, method, path string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, f.http.URL+path, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := f.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// login runs start and callback and returns the callback response.
func (f *testFixture) login(t *testing.T, header http.Header) *http.Response {
	t.Helper()
	resp := f.do(t, http.MethodGet, server.RouteAuthStart, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	authorizeURL, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	requestToken := authorizeURL.Query().Get("oauth_token")
	verifier := f.provider.Approve(requestToken)

	q := url.Values{"oauth_token": {requestToken}, "oauth_verifier": {verifier}}
	return f.do(t, http.MethodGet, server.RouteAuthCallback+"?"+q.Encode(), header)
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "oauth1_session" {
			return c
		}
	}
	return nil
}

func TestStart_Redirects(t *testing.T) {
	f := setupTestFixture(t, nil)
	resp := f.do(t, http.MethodGet, server.RouteAuthStart, nil)

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, providertest.AuthorizePath, location.Path)
	require.Equal(t, "T1", location.Query().Get("oauth_token"))
}

func TestStart_JSON(t *testing.T) {
	f := setupTestFixture(t, nil)
	resp := f.do(t, http.MethodGet, server.RouteAuthStart+"?format=json", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	require.Equal(t, true, body["success"])
	require.Contains(t, body["authorizeUrl"], "oauth_token=T1")
}

func TestStart_ProviderUnavailable(t *testing.T) {
	f := setupTestFixture(t, nil)
	f.provider.SetFailures(providertest.RequestTokenPath, http.StatusBadGateway, http.StatusBadGateway)

	resp := f.do(t, http.MethodGet, server.RouteAuthStart, nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Equal(t, map[string]any{"success": false, "error": "provider_unavailable"}, decode(t, resp))
}

func TestStart_RateLimited(t *testing.T) {
	f := setupTestFixture(t, map[string]string{"START_RATE_PER_MINUTE": "1"})

	require.Equal(t, http.StatusSeeOther, f.do(t, http.MethodGet, server.RouteAuthStart, nil).StatusCode)
	resp := f.do(t, http.MethodGet, server.RouteAuthStart, nil)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "60", resp.Header.Get("Retry-After"))
	require.Equal(t, 1, f.provider.Calls(providertest.RequestTokenPath))
}

func TestCallback_RedirectsWithCookie(t *testing.T) {
	f := setupTestFixture(t, nil)
	resp := f.login(t, nil)

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/welcome", resp.Header.Get("Location"))
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	require.NotEmpty(t, cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.Positive(t, cookie.MaxAge)
}

func TestCallback_JSON(t *testing.T) {
	f := setupTestFixture(t, nil)
	resp := f.login(t, http.Header{"Accept": {"application/json"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		User    struct {
			ProviderUserID string  `json:"providerUserId"`
			DisplayName    string  `json:"displayName"`
			Handle         string  `json:"handle"`
			Email          *string `json:"email"`
			FollowerCount  int     `json:"followerCount"`
			FollowingCount int     `json:"followingCount"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	require.NotEmpty(t, body.Token)

	want := struct {
		ProviderUserID string
		DisplayName    string
		Handle         string
		Email          *string
		FollowerCount  int
		FollowingCount int
	}{"42", "Jane", "jane", nil, 7, 3}
	got := struct {
		ProviderUserID string
		DisplayName    string
		Handle         string
		Email          *string
		FollowerCount  int
		FollowingCount int
	}(body.User)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("user payload mismatch (-want +got):\n%s", diff)
	}
}

func TestCallback_Failures(t *testing.T) {
	tests := []struct {
		name   string
		query  url.Values
		status int
		reason string
	}{
		{"missing verifier", url.Values{"oauth_token": {"T1"}}, http.StatusBadRequest, "malformed_callback"},
		{"unknown token", url.Values{"oauth_token": {"T9"}, "oauth_verifier": {"V9"}}, http.StatusBadRequest, "invalid_or_expired_token"},
		{"denied", url.Values{"denied": {"T1"}}, http.StatusForbidden, "user_denied"},
		{"wrong verifier", url.Values{"oauth_token": {"T1"}, "oauth_verifier": {"nope"}}, http.StatusUnauthorized, "exchange_rejected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t, nil)
			require.Equal(t, http.StatusSeeOther, f.do(t, http.MethodGet, server.RouteAuthStart, nil).StatusCode)
			f.provider.Approve("T1")

			resp := f.do(t, http.MethodGet, server.RouteAuthCallback+"?"+tt.query.Encode(), nil)
			require.Equal(t, tt.status, resp.StatusCode)
			require.Equal(t, map[string]any{"success": false, "error": tt.reason}, decode(t, resp))
			require.Nil(t, sessionCookie(resp))
		})
	}
}

func TestCallback_Replay(t *testing.T) {
	f := setupTestFixture(t, nil)
	first := f.login(t, nil)
	require.Equal(t, http.StatusSeeOther, first.StatusCode)

	replay := f.do(t, http.MethodGet, server.RouteAuthCallback+"?oauth_token=T1&oauth_verifier=V1", nil)
	require.Equal(t, http.StatusBadRequest, replay.StatusCode)
	require.Equal(t, "invalid_or_expired_token", decode(t, replay)["error"])
}

func TestMeAndLogout(t *testing.T) {
	f := setupTestFixture(t, nil)
	cookie := sessionCookie(f.login(t, nil))
	require.NotNil(t, cookie)
	withCookie := http.Header{"Cookie": {cookie.Name + "=" + cookie.Value}}

	me := f.do(t, http.MethodGet, server.RouteAuthMe, withCookie)
	require.Equal(t, http.StatusOK, me.StatusCode)
	user := decode(t, me)["user"].(map[string]any)
	require.Equal(t, "42", user["providerUserId"])

	bearer := f.do(t, http.MethodGet, server.RouteAuthMe, http.Header{"Authorization": {"Bearer " + cookie.Value}})
	require.Equal(t, http.StatusOK, bearer.StatusCode)

	logout := f.do(t, http.MethodPost, server.RouteAuthLogout, withCookie)
	require.Equal(t, http.StatusOK, logout.StatusCode)
	cleared := sessionCookie(logout)
	require.NotNil(t, cleared)
	require.Negative(t, cleared.MaxAge)

	after := f.do(t, http.MethodGet, server.RouteAuthMe, withCookie)
	require.Equal(t, http.StatusUnauthorized, after.StatusCode)
	require.Equal(t, "session_not_found", decode(t, after)["error"])
}

func TestMe_NoSession(t *testing.T) {
	f := setupTestFixture(t, nil)
	resp := f.do(t, http.MethodGet, server.RouteAuthMe, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCorsPreflight(t *testing.T) {
	f := setupTestFixture(t, nil)

	allowed := f.do(t, http.MethodOptions, server.RouteAuthMe, http.Header{"Origin": {"https://app.example.com"}})
	require.Equal(t, http.StatusNoContent, allowed.StatusCode)
	require.Equal(t, "https://app.example.com", allowed.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", allowed.Header.Get("Access-Control-Allow-Credentials"))

	denied := f.do(t, http.MethodOptions, server.RouteAuthMe, http.Header{"Origin": {"https://evil.example.com"}})
	require.Equal(t, http.StatusNoContent, denied.StatusCode)
	require.Empty(t, denied.Header.Get("Access-Control-Allow-Origin"))
}

func TestHealthAndMetrics(t *testing.T) {
	f := setupTestFixture(t, nil)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, server.RouteHealth, nil).StatusCode)
	require.Equal(t, http.StatusSeeOther, f.do(t, http.MethodGet, server.RouteAuthStart, nil).StatusCode)

	resp := f.do(t, http.MethodGet, server.RouteMetrics, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(raw), "oauth1_login_flow_started_total 1"))
	require.True(t, strings.Contains(string(raw), `oauth1_login_http_status_total{status_code="303"} 1`))
}
