package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth1-login/requesttokens"
	rtrepotest "github.com/jrsteele09/go-oauth1-login/requesttokens/repotest"
	"github.com/jrsteele09/go-oauth1-login/sessions"
	sessionrepotest "github.com/jrsteele09/go-oauth1-login/sessions/repotest"
	"github.com/jrsteele09/go-oauth1-login/storage/sqlite"
	"github.com/jrsteele09/go-oauth1-login/token"
	tokenrepotest "github.com/jrsteele09/go-oauth1-login/token/repotest"
	"github.com/jrsteele09/go-oauth1-login/users"
	userrepotest "github.com/jrsteele09/go-oauth1-login/users/repotest"
	"github.com/stretchr/testify/require"
)

func openTempStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "login.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedUser(t *testing.T, store *sqlite.Store) string {
	t.Helper()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	user := &users.User{ProviderUserID: "42", DisplayName: "Jane", Handle: "jane", CreatedAt: now, UpdatedAt: now, LastLoginAt: now}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user.ID
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), " ")
	require.Error(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login.db")
	first, err := sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	defer second.Close()

	var applied int
	require.NoError(t, second.DB().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	require.Equal(t, 1, applied)
}

func TestRequestTokenRepo(t *testing.T) {
	rtrepotest.Run(t, func(t *testing.T) requesttokens.Repo {
		return openTempStore(t).RequestTokens()
	})
}

func TestUserRepo(t *testing.T) {
	userrepotest.Run(t, func(t *testing.T) users.UserRepo {
		return openTempStore(t).Users()
	})
}

func TestAccessTokenRepo(t *testing.T) {
	tokenrepotest.Run(t, func(t *testing.T) (token.AccessTokenRepo, string) {
		store := openTempStore(t)
		return store.AccessTokens(), seedUser(t, store)
	})
}

func TestSealedAccessTokenRepo(t *testing.T) {
	sealer, err := token.NewSealer(make([]byte, token.SealKeySize))
	require.NoError(t, err)
	tokenrepotest.Run(t, func(t *testing.T) (token.AccessTokenRepo, string) {
		store := openTempStore(t)
		return token.NewSealedRepo(store.AccessTokens(), sealer), seedUser(t, store)
	})
}

func TestSessionRepo(t *testing.T) {
	sessionrepotest.Run(t, func(t *testing.T) (sessions.Repo, string) {
		store := openTempStore(t)
		return store.Sessions(), seedUser(t, store)
	})
}

func TestSealedSecretNotStoredInPlaintext(t *testing.T) {
	store := openTempStore(t)
	userID := seedUser(t, store)
	sealer, err := token.NewSealer(make([]byte, token.SealKeySize))
	require.NoError(t, err)

	repo := token.NewSealedRepo(store.AccessTokens(), sealer)
	require.NoError(t, repo.Upsert(context.Background(), &token.AccessToken{
		Token: "A1", TokenSecret: token.NewRedacted("AS1"), UserID: userID, ProviderUserID: "42",
	}))

	var stored string
	require.NoError(t, store.DB().QueryRow("SELECT token_secret FROM access_tokens WHERE user_id = ?", userID).Scan(&stored))
	require.NotEqual(t, "AS1", stored)
}
