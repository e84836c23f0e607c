package sqlite

import (
	"context"
	"database/sql"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/token"
	"github.com/pkg/errors"
)

var _ token.AccessTokenRepo = (*AccessTokenRepo)(nil)

// AccessTokenRepo stores TokenSecret as given. Wrap it in token.SealedRepo to
// keep secrets encrypted at rest.
type AccessTokenRepo struct {
	db *sql.DB
}

func (r *AccessTokenRepo) Upsert(ctx context.Context, at *token.AccessToken) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO access_tokens (user_id, provider_user_id, token, token_secret, obtained_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    provider_user_id = excluded.provider_user_id,
    token = excluded.token,
    token_secret = excluded.token_secret,
    obtained_at = excluded.obtained_at`,
		at.UserID, at.ProviderUserID, at.Token, at.TokenSecret.Value(), toMillis(at.ObtainedAt),
	)
	return errors.Wrap(err, "upsert access token")
}

func (r *AccessTokenRepo) GetByUserID(ctx context.Context, userID string) (*token.AccessToken, error) {
	var (
		at         token.AccessToken
		secret     string
		obtainedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id, provider_user_id, token, token_secret, obtained_at FROM access_tokens WHERE user_id = ?", userID,
	).Scan(&at.UserID, &at.ProviderUserID, &at.Token, &secret, &obtainedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, autherrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get access token")
	}
	at.TokenSecret = token.NewRedacted(secret)
	at.ObtainedAt = fromMillis(obtainedAt)
	return &at, nil
}
