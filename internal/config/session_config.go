package config

import (
	"encoding/hex"
	"time"
)

type SessionConfig interface {
	GetSessionSecret() []byte
	GetSessionTTL() time.Duration
	GetTokenSealKey() []byte
	GetPostLoginRedirect() string
	GetStartRatePerMinute() int
}

type Session struct {
	SessionSecret      string        `env:"SESSION_SECRET"`
	SessionTTL         time.Duration `env:"SESSION_TTL"           envDefault:"24h"`
	TokenSealKey       string        `env:"TOKEN_SEAL_KEY"`
	PostLoginRedirect  string        `env:"POST_LOGIN_REDIRECT"   envDefault:"/"`
	StartRatePerMinute int           `env:"START_RATE_PER_MINUTE" envDefault:"30"`
}

var _ SessionConfig = Session{}

// GetSessionSecret returns the HMAC key for session tokens.
func (s Session) GetSessionSecret() []byte {
	return []byte(s.SessionSecret)
}

func (s Session) GetSessionTTL() time.Duration {
	return s.SessionTTL
}

// GetTokenSealKey returns the secretbox key for access-token secrets at rest. The
// value may be 64 hex characters or 32 raw bytes; nil means sealing is disabled.
func (s Session) GetTokenSealKey() []byte {
	if s.TokenSealKey == "" {
		return nil
	}
	if key, err := hex.DecodeString(s.TokenSealKey); err == nil {
		return key
	}
	return []byte(s.TokenSealKey)
}

func (s Session) GetPostLoginRedirect() string {
	return s.PostLoginRedirect
}

func (s Session) GetStartRatePerMinute() int {
	return s.StartRatePerMinute
}
