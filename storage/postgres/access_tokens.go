package postgres

import (
	"context"
	"database/sql"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/token"
	"github.com/pkg/errors"
)

var _ token.AccessTokenRepo = (*AccessTokenRepo)(nil)

type AccessTokenRepo struct {
	db *sql.DB
}

func (r *AccessTokenRepo) Upsert(ctx context.Context, at *token.AccessToken) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO access_tokens (user_id, provider_user_id, token, token_secret, obtained_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET
    provider_user_id = EXCLUDED.provider_user_id,
    token = EXCLUDED.token,
    token_secret = EXCLUDED.token_secret,
    obtained_at = EXCLUDED.obtained_at`,
		at.UserID, at.ProviderUserID, at.Token, at.TokenSecret.Value(), at.ObtainedAt.UTC(),
	)
	return errors.Wrap(err, "upsert access token")
}

func (r *AccessTokenRepo) GetByUserID(ctx context.Context, userID string) (*token.AccessToken, error) {
	var (
		at     token.AccessToken
		secret string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id, provider_user_id, token, token_secret, obtained_at FROM access_tokens WHERE user_id = $1", userID,
	).Scan(&at.UserID, &at.ProviderUserID, &at.Token, &secret, &at.ObtainedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, autherrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get access token")
	}
	at.TokenSecret = token.NewRedacted(secret)
	return &at, nil
}
