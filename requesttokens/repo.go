package requesttokens

import (
	"context"
	"time"
)

// Repo is the Token Store. It is the only state shared between the start of a
// login and its callback.
type Repo interface {
	// Create stores a new token, ErrConflict if the token already exists
	Create(ctx context.Context, rt *RequestToken) error

	// Get returns the token, ErrNotFound if unknown
	Get(ctx context.Context, token string) (*RequestToken, error)

	// Consume atomically marks the token consumed and returns it. Unknown,
	// already consumed and expired tokens fail with ErrInvalidOrExpiredToken
	// and are left untouched.
	Consume(ctx context.Context, token string, now time.Time) (*RequestToken, error)

	// Delete removes the token, a missing token is not an error
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes every token whose ExpiresAt is at or before now
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
