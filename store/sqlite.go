package store

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"
)

// NewSqliteStore opens (or creates) the SQLite database at dbPath.
func NewSqliteStore(dbPath string, log *zap.Logger) (*SqlStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	s, err := NewSqlStore(db, SQLiteDialect, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
