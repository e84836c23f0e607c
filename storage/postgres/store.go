// Package postgres stores login state in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const uniqueViolation = "23505"

type Store struct {
	sqlDB *sql.DB
}

// Open migrates the schema at databaseURL and connects to it.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("database url is required")
	}
	if err := RunMigrations(databaseURL); err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.sqlDB
}

func (s *Store) RequestTokens() *RequestTokenRepo {
	return &RequestTokenRepo{db: s.sqlDB}
}

func (s *Store) Users() *UserRepo {
	return &UserRepo{db: s.sqlDB}
}

func (s *Store) AccessTokens() *AccessTokenRepo {
	return &AccessTokenRepo{db: s.sqlDB}
}

func (s *Store) Sessions() *SessionRepo {
	return &SessionRepo{db: s.sqlDB}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type rowScanner interface {
	Scan(dest ...any) error
}
