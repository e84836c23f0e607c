package token

import "context"

// AccessTokenRepo keeps the latest access token per local user.
type AccessTokenRepo interface {
	// Upsert stores at, replacing any token previously held by at.UserID
	Upsert(ctx context.Context, at *AccessToken) error
	// GetByUserID returns the user's token, ErrNotFound if none
	GetByUserID(ctx context.Context, userID string) (*AccessToken, error)
}
