package sessions

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/pkg/errors"
)

const sessionTokenIssuer = "go-oauth1-login"

// sessionClaims binds a token to one stored session. The token alone proves
// nothing; the session row must still exist.
type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type TokenSignerOption func(*TokenSigner)

func WithTokenNowTime(now func() time.Time) TokenSignerOption {
	return func(s *TokenSigner) {
		s.now = now
	}
}

// TokenSigner issues and verifies HS256 session tokens.
type TokenSigner struct {
	secret []byte
	now    func() time.Time
}

func NewTokenSigner(secret []byte, opts ...TokenSignerOption) *TokenSigner {
	s := &TokenSigner{
		secret: secret,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign returns the token handed to the client for session.
func (s *TokenSigner) Sign(session *Session) (string, error) {
	claims := sessionClaims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionTokenIssuer,
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign session token")
	}
	return signed, nil
}

// Verify checks the token signature and expiry and returns the session and user ids.
func (s *TokenSigner) Verify(tokenString string) (sessionID, userID string, err error) {
	var claims sessionClaims
	_, err = jwt.ParseWithClaims(tokenString, &claims, s.verificationKey,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionTokenIssuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", "", errors.Wrap(autherrors.ErrSessionExpired, "session token expired")
	case err != nil:
		return "", "", errors.Wrapf(autherrors.ErrSessionNotFound, "invalid session token: %v", err)
	case claims.SessionID == "":
		return "", "", errors.Wrap(autherrors.ErrSessionNotFound, "session token without sid")
	}
	return claims.SessionID, claims.Subject, nil
}

func (s *TokenSigner) verificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.secret, nil
}
