package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"booktable/internal/metrics"
)

// SQLite persists entries in a local database file so they survive
// between runs of the CLI.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens the database at path and creates the cache table.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	db.SetMaxOpenConns(1)

	const schema = `CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache table: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Get(ctx context.Context, key string, out any) (bool, error) {
	var (
		data    []byte
		expires sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&data, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.IncCacheLookup(BackendSQLite, false)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("select cache %s: %w", key, err)
	}

	if expires.Valid && s.now().UnixNano() >= expires.Int64 {
		metrics.IncCacheLookup(BackendSQLite, false)
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM cache_entries WHERE key = ? AND expires_at = ?`, key, expires.Int64,
		); err != nil {
			return false, fmt.Errorf("drop expired %s: %w", key, err)
		}
		return false, nil
	}
	metrics.IncCacheLookup(BackendSQLite, true)

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (s *SQLite) Put(ctx context.Context, key string, val any, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	var expires sql.NullInt64
	if ttl > 0 {
		expires = sql.NullInt64{Int64: s.now().Add(ttl).UnixNano(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, data, expires,
	)
	if err != nil {
		return fmt.Errorf("upsert cache %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete cache %s: %w", key, err)
	}
	return nil
}

// Purge removes every expired entry and returns how many were dropped.
func (s *SQLite) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		s.now().UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return res.RowsAffected()
}
