// Package oauth1 implements OAuth 1.0a HMAC-SHA1 request signing (RFC 5849).
package oauth1

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/pkg/errors"
)

const (
	SignatureMethod = "HMAC-SHA1"
	Version         = "1.0"

	ParamCallback        = "oauth_callback"
	ParamCallbackConfirm = "oauth_callback_confirmed"
	ParamConsumerKey     = "oauth_consumer_key"
	ParamNonce           = "oauth_nonce"
	ParamSignature       = "oauth_signature"
	ParamSignatureMethod = "oauth_signature_method"
	ParamTimestamp       = "oauth_timestamp"
	ParamToken           = "oauth_token"
	ParamTokenSecret     = "oauth_token_secret"
	ParamVerifier        = "oauth_verifier"
	ParamVersion         = "oauth_version"

	nonceBytes = 16
)

// Request describes one outbound call to be signed.
type Request struct {
	Method string
	// URL may carry a query string; its parameters are signed with Params.
	URL    string
	Params url.Values

	Token       string
	TokenSecret string

	// Callback and Verifier are only set on the request-token and access-token steps.
	Callback string
	Verifier string
}

// Signature is the outcome of signing a Request.
type Signature struct {
	BaseString string
	Value      string
	// OAuthParams holds every oauth_* parameter sent, oauth_signature included.
	OAuthParams map[string]string
	// Header is the complete Authorization header value.
	Header string
}

type SignerOption func(*Signer)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) {
		s.now = now
	}
}

// WithNonceSource overrides nonce generation.
func WithNonceSource(nonce func() (string, error)) SignerOption {
	return func(s *Signer) {
		s.nonce = nonce
	}
}

// Signer signs requests on behalf of one consumer. It holds no mutable state and
// is safe for concurrent use.
type Signer struct {
	consumerKey    string
	consumerSecret string
	now            func() time.Time
	nonce          func() (string, error)
}

func NewSigner(consumerKey, consumerSecret string, opts ...SignerOption) *Signer {
	s := &Signer{
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		now:            time.Now,
		nonce:          NewNonce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Signer) ConsumerKey() string {
	return s.consumerKey
}

// Sign merges the request and protocol parameters, computes the HMAC-SHA1
// signature and assembles the Authorization header.
func (s *Signer) Sign(req Request) (Signature, error) {
	nonce, err := s.nonce()
	if err != nil {
		return Signature{}, errors.Wrapf(autherrors.ErrSignature, "nonce: %v", err)
	}

	oauthParams := map[string]string{
		ParamConsumerKey:     s.consumerKey,
		ParamNonce:           nonce,
		ParamSignatureMethod: SignatureMethod,
		ParamTimestamp:       strconv.FormatInt(s.now().Unix(), 10),
		ParamVersion:         Version,
	}
	if req.Token != "" {
		oauthParams[ParamToken] = req.Token
	}
	if req.Callback != "" {
		oauthParams[ParamCallback] = req.Callback
	}
	if req.Verifier != "" {
		oauthParams[ParamVerifier] = req.Verifier
	}

	params := url.Values{}
	for k, v := range req.Params {
		params[k] = append(params[k], v...)
	}
	for k, v := range oauthParams {
		params.Set(k, v)
	}

	base, err := BaseString(req.Method, req.URL, params)
	if err != nil {
		return Signature{}, err
	}
	value := HMACSHA1(base, s.consumerSecret, req.TokenSecret)
	oauthParams[ParamSignature] = value

	return Signature{
		BaseString:  base,
		Value:       value,
		OAuthParams: oauthParams,
		Header:      AuthorizationHeader(oauthParams),
	}, nil
}

// SigningKey returns enc(consumerSecret)&enc(tokenSecret).
func SigningKey(consumerSecret, tokenSecret string) string {
	return PercentEncode(consumerSecret) + "&" + PercentEncode(tokenSecret)
}

// HMACSHA1 signs base with the key derived from the two secrets and returns the
// base64 digest.
func HMACSHA1(base, consumerSecret, tokenSecret string) string {
	mac := hmac.New(sha1.New, []byte(SigningKey(consumerSecret, tokenSecret)))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// AuthorizationHeader renders params as `OAuth k="v", ...` sorted by key.
func AuthorizationHeader(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = PercentEncode(k) + `="` + PercentEncode(params[k]) + `"`
	}
	return "OAuth " + strings.Join(parts, ", ")
}

// NewNonce returns 128 random bits, hex encoded.
func NewNonce() (string, error) {
	b := make([]byte, nonceBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
