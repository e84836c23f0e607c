// Package repotest holds the behaviour every token.AccessTokenRepo must share.
package repotest

import (
	"context"
	"testing"
	"time"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/token"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// Run exercises repo against the access-token store contract. newRepo returns an
// empty repo and the id of a user that tokens may reference.
func Run(t *testing.T, newRepo func(t *testing.T) (token.AccessTokenRepo, string)) {
	ctx := context.Background()

	t.Run("UpsertAndGet", func(t *testing.T) {
		repo, userID := newRepo(t)
		require.NoError(t, repo.Upsert(ctx, &token.AccessToken{
			Token:          "A1",
			TokenSecret:    token.NewRedacted("AS1"),
			UserID:         userID,
			ProviderUserID: "42",
			ObtainedAt:     base,
		}))

		got, err := repo.GetByUserID(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, "A1", got.Token)
		require.Equal(t, "AS1", got.TokenSecret.Value())
		require.Equal(t, "42", got.ProviderUserID)
		require.True(t, got.ObtainedAt.Equal(base))
	})

	t.Run("UpsertReplaces", func(t *testing.T) {
		repo, userID := newRepo(t)
		require.NoError(t, repo.Upsert(ctx, &token.AccessToken{Token: "A1", TokenSecret: token.NewRedacted("AS1"), UserID: userID, ProviderUserID: "42", ObtainedAt: base}))
		require.NoError(t, repo.Upsert(ctx, &token.AccessToken{Token: "A2", TokenSecret: token.NewRedacted("AS2"), UserID: userID, ProviderUserID: "42", ObtainedAt: base.Add(time.Hour)}))

		got, err := repo.GetByUserID(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, "A2", got.Token)
		require.Equal(t, "AS2", got.TokenSecret.Value())
	})

	t.Run("GetUnknown", func(t *testing.T) {
		repo, _ := newRepo(t)
		_, err := repo.GetByUserID(ctx, "00000000-0000-0000-0000-000000000000")
		require.ErrorIs(t, err, autherrors.ErrNotFound)
	})
}
