package config

import "time"

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

type StorageConfig interface {
	GetStorageDriver() string
	GetSQLitePath() string
	GetDatabaseURL() string
	GetSweepInterval() time.Duration
}

type Storage struct {
	Driver        string        `env:"STORAGE_DRIVER" envDefault:"memory"`
	SQLitePath    string        `env:"SQLITE_PATH"    envDefault:"./data/login.db"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
}

var _ StorageConfig = Storage{}

func (s Storage) GetStorageDriver() string {
	return s.Driver
}

func (s Storage) GetSQLitePath() string {
	return s.SQLitePath
}

func (s Storage) GetDatabaseURL() string {
	return s.DatabaseURL
}

func (s Storage) GetSweepInterval() time.Duration {
	return s.SweepInterval
}
