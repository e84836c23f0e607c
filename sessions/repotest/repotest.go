// Package repotest holds the behaviour every sessions.Repo must share.
package repotest

import (
	"context"
	"testing"
	"time"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/sessions"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// Run exercises repo against the session store contract. newRepo returns an
// empty repo and the id of a user that sessions may reference.
func Run(t *testing.T, newRepo func(t *testing.T) (sessions.Repo, string)) {
	ctx := context.Background()

	t.Run("CreateGetDelete", func(t *testing.T) {
		repo, userID := newRepo(t)
		session := &sessions.Session{ID: "s1", UserID: userID, IssuedAt: base, ExpiresAt: base.Add(24 * time.Hour)}
		require.NoError(t, repo.Create(ctx, session))

		got, err := repo.Get(ctx, "s1")
		require.NoError(t, err)
		require.Equal(t, userID, got.UserID)
		require.True(t, got.ExpiresAt.Equal(base.Add(24*time.Hour)))

		require.NoError(t, repo.Delete(ctx, "s1"))
		_, err = repo.Get(ctx, "s1")
		require.ErrorIs(t, err, autherrors.ErrSessionNotFound)
		require.ErrorIs(t, repo.Delete(ctx, "s1"), autherrors.ErrSessionNotFound)
	})

	t.Run("MultipleSessionsPerUser", func(t *testing.T) {
		repo, userID := newRepo(t)
		require.NoError(t, repo.Create(ctx, &sessions.Session{ID: "s1", UserID: userID, IssuedAt: base, ExpiresAt: base.Add(time.Hour)}))
		require.NoError(t, repo.Create(ctx, &sessions.Session{ID: "s2", UserID: userID, IssuedAt: base, ExpiresAt: base.Add(time.Hour)}))

		_, err := repo.Get(ctx, "s1")
		require.NoError(t, err)
		_, err = repo.Get(ctx, "s2")
		require.NoError(t, err)
	})

	t.Run("DeleteExpired", func(t *testing.T) {
		repo, userID := newRepo(t)
		require.NoError(t, repo.Create(ctx, &sessions.Session{ID: "old", UserID: userID, IssuedAt: base, ExpiresAt: base.Add(time.Minute)}))
		require.NoError(t, repo.Create(ctx, &sessions.Session{ID: "live", UserID: userID, IssuedAt: base, ExpiresAt: base.Add(time.Hour)}))

		purged, err := repo.DeleteExpired(ctx, base.Add(time.Minute))
		require.NoError(t, err)
		require.Equal(t, 1, purged)

		_, err = repo.Get(ctx, "live")
		require.NoError(t, err)
	})
}
