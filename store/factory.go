package store

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// Config selects and configures a backend.
type Config struct {
	Backend     string
	DataDir     string
	SqlitePath  string
	PostgresDSN string
	Redis       RedisConfig
}

// New creates a Store based on the backend name.
//
// Supported backends:
//
//	"json"     - JSON files in DataDir (default)
//	"sqlite"   - SQLite database at SqlitePath (default DataDir/family.db)
//	"postgres" - PostgreSQL at PostgresDSN
//	"redis"    - Redis at Redis.Addr
//	"memory"   - In-memory (ephemeral, for testing)
func New(cfg Config, log *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "json", "":
		return NewJsonFileStore(cfg.DataDir)
	case "sqlite":
		path := cfg.SqlitePath
		if path == "" {
			path = filepath.Join(cfg.DataDir, "family.db")
		}
		return NewSqliteStore(path, log)
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres backend requires a DSN")
		}
		return NewPostgresStore(cfg.PostgresDSN, log)
	case "redis":
		return NewRedisStore(cfg.Redis, log)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: json, sqlite, postgres, redis, memory)", cfg.Backend)
	}
}
