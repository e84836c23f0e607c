package sqlite

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/users"
	"github.com/pkg/errors"
)

var _ users.UserRepo = (*UserRepo)(nil)

const userColumns = "id, provider_user_id, display_name, handle, email, follower_count, following_count, created_at, updated_at, last_login_at"

type UserRepo struct {
	db *sql.DB
}

// Create inserts user, assigning an ID when it has none.
func (r *UserRepo) Create(ctx context.Context, user *users.User) error {
	id := user.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		id, user.ProviderUserID, user.DisplayName, user.Handle, nullString(user.Email),
		user.FollowerCount, user.FollowingCount,
		toMillis(user.CreatedAt), toMillis(user.UpdatedAt), toMillis(user.LastLoginAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(autherrors.ErrConflict, "provider user %s", user.ProviderUserID)
		}
		return errors.Wrap(err, "insert user")
	}
	user.ID = id
	return nil
}

func (r *UserRepo) Update(ctx context.Context, user *users.User) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET
    display_name = ?, handle = ?, email = ?, follower_count = ?, following_count = ?,
    updated_at = ?, last_login_at = ?
WHERE id = ?`,
		user.DisplayName, user.Handle, nullString(user.Email), user.FollowerCount, user.FollowingCount,
		toMillis(user.UpdatedAt), toMillis(user.LastLoginAt), user.ID,
	)
	if err != nil {
		return errors.Wrap(err, "update user")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update user")
	}
	if n == 0 {
		return autherrors.ErrNotFound
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

func (r *UserRepo) GetByProviderUserID(ctx context.Context, providerUserID string) (*users.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE provider_user_id = ?", providerUserID)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg string) (*users.User, error) {
	var (
		user                               users.User
		email                              sql.NullString
		createdAt, updatedAt, lastLoginAt int64
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.ProviderUserID, &user.DisplayName, &user.Handle, &email,
		&user.FollowerCount, &user.FollowingCount, &createdAt, &updatedAt, &lastLoginAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, autherrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	if email.Valid {
		user.Email = &email.String
	}
	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)
	user.LastLoginAt = fromMillis(lastLoginAt)
	return &user, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
