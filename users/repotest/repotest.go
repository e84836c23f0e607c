// Package repotest holds the behaviour every users.UserRepo must share.
package repotest

import (
	"context"
	"testing"
	"time"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/internal/utils"
	"github.com/jrsteele09/go-oauth1-login/users"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newUser(providerID string) *users.User {
	return &users.User{
		ProviderUserID: providerID,
		DisplayName:    "Jane",
		Handle:         "jane",
		Email:          utils.Ptr("jane@example.com"),
		FollowerCount:  10,
		FollowingCount: 3,
		CreatedAt:      base,
		UpdatedAt:      base,
		LastLoginAt:    base,
	}
}

// Run exercises repo against the user store contract.
func Run(t *testing.T, newRepo func(t *testing.T) users.UserRepo) {
	ctx := context.Background()

	t.Run("CreateAssignsID", func(t *testing.T) {
		repo := newRepo(t)
		user := newUser("42")
		require.NoError(t, repo.Create(ctx, user))
		require.NotEmpty(t, user.ID)

		got, err := repo.GetByProviderUserID(ctx, "42")
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)
		require.Equal(t, "jane@example.com", got.EmailOrEmpty())
		require.Equal(t, 10, got.FollowerCount)
		require.True(t, got.CreatedAt.Equal(base))
	})

	t.Run("CreateDuplicateProviderID", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newUser("42")))
		require.ErrorIs(t, repo.Create(ctx, newUser("42")), autherrors.ErrConflict)
	})

	t.Run("CreateWithoutEmail", func(t *testing.T) {
		repo := newRepo(t)
		user := newUser("7")
		user.Email = nil
		require.NoError(t, repo.Create(ctx, user))

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		require.Nil(t, got.Email)
	})

	t.Run("Update", func(t *testing.T) {
		repo := newRepo(t)
		user := newUser("42")
		require.NoError(t, repo.Create(ctx, user))

		user.DisplayName = "Jane Doe"
		user.Handle = "janedoe"
		user.FollowerCount = 11
		user.UpdatedAt = base.Add(time.Hour)
		user.LastLoginAt = base.Add(time.Hour)
		require.NoError(t, repo.Update(ctx, user))

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, "Jane Doe", got.DisplayName)
		require.Equal(t, "janedoe", got.Handle)
		require.Equal(t, 11, got.FollowerCount)
		require.True(t, got.LastLoginAt.Equal(base.Add(time.Hour)))
		require.True(t, got.CreatedAt.Equal(base))
	})

	t.Run("UpdateUnknown", func(t *testing.T) {
		repo := newRepo(t)
		user := newUser("42")
		user.ID = "00000000-0000-0000-0000-000000000000"
		require.ErrorIs(t, repo.Update(ctx, user), autherrors.ErrNotFound)
	})

	t.Run("GetUnknown", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		require.ErrorIs(t, err, autherrors.ErrNotFound)
		_, err = repo.GetByProviderUserID(ctx, "missing")
		require.ErrorIs(t, err, autherrors.ErrNotFound)
	})
}
