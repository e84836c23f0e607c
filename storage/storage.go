// Package storage selects the repository backend named by configuration.
package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-oauth1-login/internal/config"
	"github.com/jrsteele09/go-oauth1-login/requesttokens"
	fakerequesttokenrepo "github.com/jrsteele09/go-oauth1-login/requesttokens/repofake"
	"github.com/jrsteele09/go-oauth1-login/sessions"
	fakesessionrepo "github.com/jrsteele09/go-oauth1-login/sessions/repofake"
	"github.com/jrsteele09/go-oauth1-login/storage/postgres"
	"github.com/jrsteele09/go-oauth1-login/storage/sqlite"
	"github.com/jrsteele09/go-oauth1-login/token"
	tokenfakerepo "github.com/jrsteele09/go-oauth1-login/token/repofake"
	"github.com/jrsteele09/go-oauth1-login/users"
	fakeuserrepo "github.com/jrsteele09/go-oauth1-login/users/repofake"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Backend is one consistent set of repositories.
type Backend struct {
	Driver        string
	RequestTokens requesttokens.Repo
	Users         users.UserRepo
	AccessTokens  token.AccessTokenRepo
	Sessions      sessions.Repo

	closer func() error
}

func (b *Backend) Close() error {
	if b == nil || b.closer == nil {
		return nil
	}
	return b.closer()
}

// Open builds the backend named by cfg. When sealKey is non-empty, access-token
// secrets are sealed before they reach storage.
func Open(ctx context.Context, cfg config.StorageConfig, sealKey []byte) (*Backend, error) {
	var b *Backend
	switch driver := cfg.GetStorageDriver(); driver {
	case config.StorageMemory:
		b = &Backend{
			RequestTokens: fakerequesttokenrepo.NewFakeRequestTokenRepo(),
			Users:         fakeuserrepo.NewFakeUserRepo(),
			AccessTokens:  tokenfakerepo.NewFakeTokensRepo(),
			Sessions:      fakesessionrepo.NewFakeSessionRepo(),
		}
	case config.StorageSQLite:
		path := cfg.GetSQLitePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, errors.Wrap(err, "storage.Open create sqlite dir")
		}
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, errors.Wrap(err, "storage.Open sqlite")
		}
		b = &Backend{
			RequestTokens: store.RequestTokens(),
			Users:         store.Users(),
			AccessTokens:  store.AccessTokens(),
			Sessions:      store.Sessions(),
			closer:        store.Close,
		}
	case config.StoragePostgres:
		store, err := postgres.Open(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return nil, errors.Wrap(err, "storage.Open postgres")
		}
		b = &Backend{
			RequestTokens: store.RequestTokens(),
			Users:         store.Users(),
			AccessTokens:  store.AccessTokens(),
			Sessions:      store.Sessions(),
			closer:        store.Close,
		}
	default:
		return nil, errors.Errorf("storage.Open unknown driver %q", driver)
	}
	b.Driver = cfg.GetStorageDriver()

	if len(sealKey) > 0 {
		sealer, err := token.NewSealer(sealKey)
		if err != nil {
			_ = b.Close()
			return nil, errors.Wrap(err, "storage.Open sealer")
		}
		b.AccessTokens = token.NewSealedRepo(b.AccessTokens, sealer)
	}

	log.Info().Str("driver", b.Driver).Bool("sealed", len(sealKey) > 0).Msg("storage ready")
	return b, nil
}
