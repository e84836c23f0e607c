// Package repotest holds the behaviour every requesttokens.Repo must share.
package repotest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	autherrors "github.com/jrsteele09/go-oauth1-login/internal/errors"
	"github.com/jrsteele09/go-oauth1-login/requesttokens"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newToken(token string, ttl time.Duration) *requesttokens.RequestToken {
	return &requesttokens.RequestToken{
		Token:       token,
		TokenSecret: token + "-secret",
		CallbackURL: "http://localhost:8080/auth/callback",
		CreatedAt:   base,
		ExpiresAt:   base.Add(ttl),
	}
}

// Run exercises repo against the Token Store contract. newRepo must return an
// empty repo on each call.
func Run(t *testing.T, newRepo func(t *testing.T) requesttokens.Repo) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newToken("T1", 10*time.Minute)))

		got, err := repo.Get(ctx, "T1")
		require.NoError(t, err)
		require.Equal(t, "T1-secret", got.TokenSecret)
		require.Equal(t, "http://localhost:8080/auth/callback", got.CallbackURL)
		require.False(t, got.Consumed)
		require.True(t, got.ExpiresAt.Equal(base.Add(10*time.Minute)))
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newToken("T1", time.Minute)))
		require.ErrorIs(t, repo.Create(ctx, newToken("T1", time.Minute)), autherrors.ErrConflict)
	})

	t.Run("GetUnknown", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Get(ctx, "nope")
		require.ErrorIs(t, err, autherrors.ErrNotFound)
	})

	t.Run("ConsumeOnce", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newToken("T1", 10*time.Minute)))

		rt, err := repo.Consume(ctx, "T1", base.Add(time.Minute))
		require.NoError(t, err)
		require.Equal(t, "T1-secret", rt.TokenSecret)
		require.True(t, rt.Consumed)

		_, err = repo.Consume(ctx, "T1", base.Add(time.Minute))
		require.ErrorIs(t, err, autherrors.ErrInvalidOrExpiredToken)

		stored, err := repo.Get(ctx, "T1")
		require.NoError(t, err)
		require.True(t, stored.Consumed)
	})

	t.Run("ConsumeUnknown", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Consume(ctx, "forged", base)
		require.ErrorIs(t, err, autherrors.ErrInvalidOrExpiredToken)
	})

	t.Run("ConsumeExpired", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newToken("T1", 10*time.Minute)))

		_, err := repo.Consume(ctx, "T1", base.Add(10*time.Minute))
		require.ErrorIs(t, err, autherrors.ErrInvalidOrExpiredToken)

		stored, err := repo.Get(ctx, "T1")
		require.NoError(t, err)
		require.False(t, stored.Consumed)
	})

	t.Run("ConsumeConcurrentExactlyOnce", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newToken("T1", 10*time.Minute)))

		const attempts = 32
		var wins, rejects atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := repo.Consume(ctx, "T1", base.Add(time.Minute))
				switch {
				case err == nil:
					wins.Add(1)
				case autherrors.Is(err, autherrors.ErrInvalidOrExpiredToken):
					rejects.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		require.Equal(t, int32(1), wins.Load())
		require.Equal(t, int32(attempts-1), rejects.Load())
	})

	t.Run("Delete", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newToken("T1", time.Minute)))
		require.NoError(t, repo.Delete(ctx, "T1"))
		require.NoError(t, repo.Delete(ctx, "T1"))
		_, err := repo.Get(ctx, "T1")
		require.ErrorIs(t, err, autherrors.ErrNotFound)
	})

	t.Run("DeleteExpired", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newToken("old", time.Minute)))
		require.NoError(t, repo.Create(ctx, newToken("edge", 5*time.Minute)))
		require.NoError(t, repo.Create(ctx, newToken("fresh", time.Hour)))

		purged, err := repo.DeleteExpired(ctx, base.Add(5*time.Minute))
		require.NoError(t, err)
		require.Equal(t, 2, purged)

		_, err = repo.Get(ctx, "fresh")
		require.NoError(t, err)
		_, err = repo.Get(ctx, "old")
		require.ErrorIs(t, err, autherrors.ErrNotFound)
	})
}
