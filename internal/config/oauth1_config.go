package config

import (
	"net/url"
	"time"
)

type OAuth1Config interface {
	GetConsumerKey() string
	GetConsumerSecret() string
	GetCallbackURL() string
	GetRequestTokenURL() string
	GetAuthorizeURL() string
	GetAccessTokenURL() string
	GetProfileURL() string
	GetProfileParams() url.Values
	GetRequestTokenTTL() time.Duration
	GetHTTPTimeout() time.Duration
	GetRetryBackoff() time.Duration
}

// OAuth1 holds the consumer credentials and provider endpoints. The defaults
// target the Twitter style endpoints.
type OAuth1 struct {
	ConsumerKey     string        `env:"OAUTH1_CONSUMER_KEY"`
	ConsumerSecret  string        `env:"OAUTH1_CONSUMER_SECRET"`
	CallbackURL     string        `env:"OAUTH1_CALLBACK_URL"`
	RequestTokenURL string        `env:"OAUTH1_REQUEST_TOKEN_URL" envDefault:"https://api.twitter.com/oauth/request_token"`
	AuthorizeURL    string        `env:"OAUTH1_AUTHORIZE_URL"     envDefault:"https://api.twitter.com/oauth/authenticate"`
	AccessTokenURL  string        `env:"OAUTH1_ACCESS_TOKEN_URL"  envDefault:"https://api.twitter.com/oauth/access_token"`
	ProfileURL      string        `env:"OAUTH1_PROFILE_URL"       envDefault:"https://api.twitter.com/1.1/account/verify_credentials.json"`
	ProfileParams   string        `env:"OAUTH1_PROFILE_PARAMS"    envDefault:"include_email=true&skip_status=true"`
	RequestTokenTTL time.Duration `env:"OAUTH1_REQUEST_TOKEN_TTL" envDefault:"10m"`
	HTTPTimeout     time.Duration `env:"OAUTH1_HTTP_TIMEOUT"      envDefault:"10s"`
	RetryBackoff    time.Duration `env:"OAUTH1_RETRY_BACKOFF"     envDefault:"250ms"`
}

var _ OAuth1Config = OAuth1{}

func (o OAuth1) GetConsumerKey() string {
	return o.ConsumerKey
}

func (o OAuth1) GetConsumerSecret() string {
	return o.ConsumerSecret
}

func (o OAuth1) GetCallbackURL() string {
	return o.CallbackURL
}

func (o OAuth1) GetRequestTokenURL() string {
	return o.RequestTokenURL
}

func (o OAuth1) GetAuthorizeURL() string {
	return o.AuthorizeURL
}

func (o OAuth1) GetAccessTokenURL() string {
	return o.AccessTokenURL
}

func (o OAuth1) GetProfileURL() string {
	return o.ProfileURL
}

// GetProfileParams returns the extra query parameters sent with the profile request.
// An unparsable value yields no parameters.
func (o OAuth1) GetProfileParams() url.Values {
	params, err := url.ParseQuery(o.ProfileParams)
	if err != nil {
		return url.Values{}
	}
	return params
}

func (o OAuth1) GetRequestTokenTTL() time.Duration {
	return o.RequestTokenTTL
}

func (o OAuth1) GetHTTPTimeout() time.Duration {
	return o.HTTPTimeout
}

func (o OAuth1) GetRetryBackoff() time.Duration {
	return o.RetryBackoff
}
