package postgres

import (
	"context"
	"database/sql"
	"time"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/requesttokens"
	"github.com/pkg/errors"
)

var _ requesttokens.Repo = (*RequestTokenRepo)(nil)

const requestTokenColumns = "token, token_secret, callback_url, created_at, expires_at, consumed"

type RequestTokenRepo struct {
	db *sql.DB
}

func (r *RequestTokenRepo) Create(ctx context.Context, rt *requesttokens.RequestToken) error {
	if rt == nil || rt.Token == "" {
		return errors.New("request token cannot be empty")
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO request_tokens ("+requestTokenColumns+") VALUES ($1, $2, $3, $4, $5, $6)",
		rt.Token, rt.TokenSecret, rt.CallbackURL, rt.CreatedAt.UTC(), rt.ExpiresAt.UTC(), rt.Consumed,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(autherrors.ErrConflict, "request token %s", rt.Token)
		}
		return errors.Wrap(err, "insert request token")
	}
	return nil
}

func (r *RequestTokenRepo) Get(ctx context.Context, token string) (*requesttokens.RequestToken, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+requestTokenColumns+" FROM request_tokens WHERE token = $1", token)
	rt, err := scanRequestToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, autherrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get request token")
	}
	return rt, nil
}

// Consume relies on row locking of the conditional UPDATE: of any number of
// concurrent callers at most one gets the row back.
func (r *RequestTokenRepo) Consume(ctx context.Context, token string, now time.Time) (*requesttokens.RequestToken, error) {
	row := r.db.QueryRowContext(ctx,
		"UPDATE request_tokens SET consumed = TRUE WHERE token = $1 AND NOT consumed AND expires_at > $2 RETURNING "+requestTokenColumns,
		token, now.UTC(),
	)
	rt, err := scanRequestToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, autherrors.ErrInvalidOrExpiredToken
	}
	if err != nil {
		return nil, errors.Wrap(err, "consume request token")
	}
	return rt, nil
}

func (r *RequestTokenRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM request_tokens WHERE token = $1", token)
	return errors.Wrap(err, "delete request token")
}

func (r *RequestTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM request_tokens WHERE expires_at <= $1", now.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "delete expired request tokens")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "delete expired request tokens")
}

func scanRequestToken(row rowScanner) (*requesttokens.RequestToken, error) {
	var rt requesttokens.RequestToken
	if err := row.Scan(&rt.Token, &rt.TokenSecret, &rt.CallbackURL, &rt.CreatedAt, &rt.ExpiresAt, &rt.Consumed); err != nil {
		return nil, err
	}
	rt.CreatedAt = rt.CreatedAt.UTC()
	rt.ExpiresAt = rt.ExpiresAt.UTC()
	return &rt, nil
}
