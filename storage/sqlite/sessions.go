package sqlite

import (
	"context"
	"database/sql"
	"time"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/sessions"
	"github.com/pkg/errors"
)

var _ sessions.Repo = (*SessionRepo)(nil)

type SessionRepo struct {
	db *sql.DB
}

func (r *SessionRepo) Create(ctx context.Context, session *sessions.Session) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, issued_at, expires_at) VALUES (?, ?, ?, ?)",
		session.ID, session.UserID, toMillis(session.IssuedAt), toMillis(session.ExpiresAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(autherrors.ErrConflict, "session %s", session.ID)
		}
		return errors.Wrap(err, "insert session")
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*sessions.Session, error) {
	var (
		session             sessions.Session
		issuedAt, expiresAt int64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, issued_at, expires_at FROM sessions WHERE id = ?", sessionID,
	).Scan(&session.ID, &session.UserID, &issuedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, autherrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get session")
	}
	session.IssuedAt = fromMillis(issuedAt)
	session.ExpiresAt = fromMillis(expiresAt)
	return &session, nil
}

func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return errors.Wrap(err, "delete session")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete session")
	}
	if n == 0 {
		return autherrors.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", toMillis(now))
	if err != nil {
		return 0, errors.Wrap(err, "delete expired sessions")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "delete expired sessions")
}
