// Package providertest runs an in-process OAuth 1.0a identity provider that
// verifies every signature it receives.
package providertest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/go-oauth1-login/oauth1"
	"github.com/jrsteele09/go-oauth1-login/provider"
)

const (
	RequestTokenPath = "/oauth/request_token"
	AuthorizePath    = "/oauth/authenticate"
	AccessTokenPath  = "/oauth/access_token"
	ProfilePath      = "/1.1/account/verify_credentials.json"

	DefaultProfile = `{"id_str":"42","name":"Jane","screen_name":"jane","followers_count":7,"friends_count":3}`
)

type issued struct {
	secret   string
	verifier string
}

// Server is a fake provider. Tokens are issued as T1/S1, T2/S2... and access
// tokens as A1/AS1, A2/AS2... in call order.
type Server struct {
	*httptest.Server

	ConsumerKey    string
	ConsumerSecret string

	mu                sync.Mutex
	callbackConfirmed string
	profileBody       string
	// fail* hold statuses returned, one per call, before normal service resumes
	failRequestToken []int
	failAccessToken  []int
	failProfile      []int

	requestTokens map[string]*issued
	accessTokens  map[string]string
	requestSeq    int
	accessSeq     int
	calls         map[string]int
	lastProfile   url.Values
}

func NewServer(t *testing.T, consumerKey, consumerSecret string) *Server {
	t.Helper()
	s := &Server{
		ConsumerKey:       consumerKey,
		ConsumerSecret:    consumerSecret,
		callbackConfirmed: "true",
		profileBody:       DefaultProfile,
		requestTokens:     make(map[string]*issued),
		accessTokens:      make(map[string]string),
		calls:             make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(RequestTokenPath, s.handleRequestToken)
	mux.HandleFunc(AccessTokenPath, s.handleAccessToken)
	mux.HandleFunc(ProfilePath, s.handleProfile)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Endpoints points a provider.Client at this server.
func (s *Server) Endpoints() provider.Endpoints {
	return provider.Endpoints{
		RequestTokenURL: s.URL + RequestTokenPath,
		AuthorizeURL:    s.URL + AuthorizePath,
		AccessTokenURL:  s.URL + AccessTokenPath,
		ProfileURL:      s.URL + ProfilePath,
		ProfileParams:   url.Values{"include_email": {"true"}},
	}
}

// Approve simulates the user authorizing requestToken and returns the verifier
// the provider would append to the callback.
func (s *Server) Approve(requestToken string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.requestTokens[requestToken]
	if !ok {
		return ""
	}
	rt.verifier = "V" + strings.TrimPrefix(requestToken, "T")
	return rt.verifier
}

// Calls returns how many requests reached path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// LastProfileQuery returns the query of the latest profile request.
func (s *Server) LastProfileQuery() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastProfile
}

func (s *Server) SetFailures(path string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch path {
	case RequestTokenPath:
		s.failRequestToken = statuses
	case AccessTokenPath:
		s.failAccessToken = statuses
	case ProfilePath:
		s.failProfile = statuses
	}
}

func (s *Server) SetProfileBody(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profileBody = body
}

func (s *Server) SetCallbackConfirmed(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbackConfirmed = v
}

func popFailure(queue *[]int) int {
	if len(*queue) == 0 {
		return 0
	}
	status := (*queue)[0]
	*queue = (*queue)[1:]
	return status
}

func (s *Server) handleRequestToken(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[RequestTokenPath]++

	if status := popFailure(&s.failRequestToken); status != 0 {
		http.Error(w, "unavailable", status)
		return
	}
	params, err := s.verify(r, "")
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if params.Get(oauth1.ParamCallback) == "" {
		http.Error(w, "oauth_callback required", http.StatusBadRequest)
		return
	}

	s.requestSeq++
	token, secret := fmt.Sprintf("T%d", s.requestSeq), fmt.Sprintf("S%d", s.requestSeq)
	s.requestTokens[token] = &issued{secret: secret}
	writeForm(w, url.Values{
		oauth1.ParamToken:           {token},
		oauth1.ParamTokenSecret:     {secret},
		oauth1.ParamCallbackConfirm: {s.callbackConfirmed},
	})
}

func (s *Server) handleAccessToken(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[AccessTokenPath]++

	if status := popFailure(&s.failAccessToken); status != 0 {
		http.Error(w, "unavailable", status)
		return
	}
	token := oauthParam(r, oauth1.ParamToken)
	rt, ok := s.requestTokens[token]
	if !ok {
		http.Error(w, "unknown request token", http.StatusUnauthorized)
		return
	}
	params, err := s.verify(r, rt.secret)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if rt.verifier == "" || params.Get(oauth1.ParamVerifier) != rt.verifier {
		http.Error(w, "invalid verifier", http.StatusUnauthorized)
		return
	}
	delete(s.requestTokens, token)

	s.accessSeq++
	access, secret := fmt.Sprintf("A%d", s.accessSeq), fmt.Sprintf("AS%d", s.accessSeq)
	s.accessTokens[access] = secret
	writeForm(w, url.Values{
		oauth1.ParamToken:       {access},
		oauth1.ParamTokenSecret: {secret},
		"user_id":               {"42"},
		"screen_name":           {"jane"},
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[ProfilePath]++

	if status := popFailure(&s.failProfile); status != 0 {
		http.Error(w, "unavailable", status)
		return
	}
	secret, ok := s.accessTokens[oauthParam(r, oauth1.ParamToken)]
	if !ok {
		http.Error(w, "unknown access token", http.StatusUnauthorized)
		return
	}
	if _, err := s.verify(r, secret); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	s.lastProfile = r.URL.Query()
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, s.profileBody)
}

// verify recomputes the signature of r and returns every signed parameter.
func (s *Server) verify(r *http.Request, tokenSecret string) (url.Values, error) {
	header, err := ParseAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}
	if header[oauth1.ParamConsumerKey] != s.ConsumerKey {
		return nil, fmt.Errorf("unknown consumer %q", header[oauth1.ParamConsumerKey])
	}
	if header[oauth1.ParamSignatureMethod] != oauth1.SignatureMethod {
		return nil, fmt.Errorf("unsupported signature method %q", header[oauth1.ParamSignatureMethod])
	}

	params := url.Values{}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	for k, v := range r.Form {
		params[k] = append(params[k], v...)
	}
	for k, v := range header {
		if k != oauth1.ParamSignature {
			params.Set(k, v)
		}
	}

	base, err := oauth1.BaseString(r.Method, "http://"+r.Host+r.URL.Path, params)
	if err != nil {
		return nil, err
	}
	if want := oauth1.HMACSHA1(base, s.ConsumerSecret, tokenSecret); want != header[oauth1.ParamSignature] {
		return nil, fmt.Errorf("signature mismatch")
	}
	return params, nil
}

func oauthParam(r *http.Request, key string) string {
	header, err := ParseAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		return ""
	}
	return header[key]
}

// ParseAuthorizationHeader decodes an `OAuth k="v", ...` header.
func ParseAuthorizationHeader(header string) (map[string]string, error) {
	rest, ok := strings.CutPrefix(header, "OAuth ")
	if !ok {
		return nil, fmt.Errorf("not an OAuth header: %q", header)
	}
	params := map[string]string{}
	for _, part := range strings.Split(rest, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("malformed header parameter %q", part)
		}
		value, err := url.PathUnescape(strings.Trim(v, `"`))
		if err != nil {
			return nil, err
		}
		params[k] = value
	}
	return params, nil
}

func writeForm(w http.ResponseWriter, values url.Values) {
	w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
	_, _ = io.WriteString(w, values.Encode())
}
