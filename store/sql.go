package store

import (
	"database/sql"
	"errors"
	"strings"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

const kvTable = "kv"

// Dialect captures the differences between the SQL engines SqlStore runs on.
type Dialect struct {
	Name        string
	Placeholder sq.PlaceholderFormat
	CreateTable string
}

var (
	SQLiteDialect = Dialect{
		Name:        "sqlite",
		Placeholder: sq.Question,
		CreateTable: `CREATE TABLE IF NOT EXISTS kv (
		key TEXT NOT NULL PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	}
	PostgresDialect = Dialect{
		Name:        "postgres",
		Placeholder: sq.Dollar,
		CreateTable: `CREATE TABLE IF NOT EXISTS kv (
		key TEXT NOT NULL PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	}
)

// SqlStore stores every key as one row of a single table.
//
// Tables:
//
//	kv(key, value)  PRIMARY KEY (key)
type SqlStore struct {
	mu      sync.RWMutex
	db      *sql.DB
	dialect Dialect
	log     *zap.Logger
}

// NewSqlStore prepares the kv table on an already opened database.
func NewSqlStore(db *sql.DB, dialect Dialect, log *zap.Logger) (*SqlStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if _, err := db.Exec(dialect.CreateTable); err != nil {
		return nil, err
	}
	return &SqlStore{db: db, dialect: dialect, log: log.With(zap.String("backend", dialect.Name))}, nil
}

func (s *SqlStore) qb() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(s.dialect.Placeholder)
}

func (s *SqlStore) logSQL(op, query string) {
	s.log.Debug("sql", zap.String("op", op), zap.String("query", query))
}

func (s *SqlStore) Close() error {
	return s.db.Close()
}

func (s *SqlStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query, args, err := s.qb().Select("value").From(kvTable).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return nil, err
	}
	s.logSQL("get", query)
	var raw string
	err = s.db.QueryRow(query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

func (s *SqlStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	query, args, err := s.qb().Insert(kvTable).
		Columns("key", "value").
		Values(key, string(value)).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = excluded.value").
		ToSql()
	if err != nil {
		return err
	}
	s.logSQL("set", query)
	_, err = s.db.Exec(query, args...)
	return err
}

func (s *SqlStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	query, args, err := s.qb().Delete(kvTable).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return err
	}
	s.logSQL("remove", query)
	_, err = s.db.Exec(query, args...)
	return err
}

// Keys uses LIKE to narrow the scan, then re-checks the prefix in Go
// because "_" and "%" in the prefix are LIKE wildcards.
func (s *SqlStore) Keys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query, args, err := s.qb().Select("key").From(kvTable).
		Where(sq.Like{"key": prefix + "%"}).
		OrderBy("key").
		ToSql()
	if err != nil {
		return nil, err
	}
	s.logSQL("keys", query)
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, rows.Err()
}
