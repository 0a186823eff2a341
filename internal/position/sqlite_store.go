package position

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps positions in a local SQLite database. Expired rows stay
// on disk until DeleteExpired runs but are never returned by Get.
type SQLiteStore struct {
	db   *sql.DB
	opts options
}

func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := migrate(context.Background(), db, migrationFiles); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, opts: buildOptions(opts)}, nil
}

// sqliteDSN sets WAL and a busy timeout on every connection through
// modernc's _pragma parameters.
func sqliteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	return "file:" + path + "?" + q.Encode()
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Put(ctx context.Context, key string, ms int64) error {
	if key == "" {
		return ErrEmptyKey
	}
	payload, err := encodeRecord(ms)
	if err != nil {
		return storageErr("put", key, err)
	}
	now := s.opts.now()
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO playback_positions (key, value_json, expires_at_ms, updated_at_ms)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			value_json=excluded.value_json,
			expires_at_ms=excluded.expires_at_ms,
			updated_at_ms=excluded.updated_at_ms`,
		key,
		payload,
		now.Add(s.opts.ttl).UnixMilli(),
		now.UnixMilli(),
	)
	return storageErr("put", key, err)
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (int64, bool, error) {
	if key == "" {
		return 0, false, ErrEmptyKey
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT value_json
		 FROM playback_positions
		 WHERE key = ? AND expires_at_ms > ?`,
		key,
		s.opts.now().UnixMilli(),
	)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, storageErr("get", key, err)
	}
	rec, err := decodeRecord(payload)
	if err != nil {
		return 0, false, storageErr("get", key, err)
	}
	return rec.LastSeekMs, true, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM playback_positions WHERE key = ?`, key)
	return storageErr("delete", key, err)
}

// DeleteExpired removes rows whose validity window ended at or before now.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM playback_positions WHERE expires_at_ms <= ?`, now.UnixMilli())
	if err != nil {
		return 0, storageErr("purge", "", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("purge", "", err)
	}
	return n, nil
}
