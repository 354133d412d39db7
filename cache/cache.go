// Package cache stores parse envelopes in SQLite, keyed by file identity.
// A key covers path, size, modification time and the parse options, so a
// rewritten file or a different row budget never returns a stale hit.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/filepipe/filepipe/dbopen"
	"github.com/filepipe/filepipe/parse"
)

// Schema is the cache table DDL, exported so callers can pass it to
// dbopen.WithSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS parse_cache (
	key        TEXT PRIMARY KEY,
	path       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	payload    BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_parse_cache_path ON parse_cache(path);
`

// Store is a read-through cache for parse envelopes.
type Store struct {
	db *sql.DB
}

// New wraps an open database. The Schema must already be applied.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// entry is the msgpack payload stored per key. The envelope is kept as
// its canonical JSON bytes so the cached shape is byte-for-byte what the
// dispatcher produced.
type entry struct {
	StoredAt int64  `msgpack:"stored_at"`
	Envelope []byte `msgpack:"envelope"`
}

// Key derives the cache key for one parse call: SHA-256 over path, size,
// mtime and the JSON-encoded options.
func Key(path string, info os.FileInfo, opts parse.Options) (string, error) {
	optJSON, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("cache: marshal options: %w", err)
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|%s", path, info.Size(), info.ModTime().UnixNano(), optJSON)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns the cached envelope for key, or ok=false on a miss.
func (s *Store) Get(ctx context.Context, key string) (parse.Envelope, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM parse_cache WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return parse.Envelope{}, false, nil
	}
	if err != nil {
		return parse.Envelope{}, false, fmt.Errorf("cache: get: %w", err)
	}

	var e entry
	if err := msgpack.Unmarshal(payload, &e); err != nil {
		return parse.Envelope{}, false, fmt.Errorf("cache: decode entry: %w", err)
	}
	var env parse.Envelope
	if err := json.Unmarshal(e.Envelope, &env); err != nil {
		return parse.Envelope{}, false, fmt.Errorf("cache: decode envelope: %w", err)
	}
	return env, true, nil
}

// Put stores a successful envelope under key. Failures are never cached:
// a missing file may appear, a permission may be granted.
func (s *Store) Put(ctx context.Context, key, path string, env parse.Envelope) error {
	if !env.Success {
		return nil
	}

	envJSON, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("cache: marshal envelope: %w", err)
	}
	payload, err := msgpack.Marshal(entry{
		StoredAt: time.Now().Unix(),
		Envelope: envJSON,
	})
	if err != nil {
		return fmt.Errorf("cache: encode entry: %w", err)
	}

	_, err = dbopen.Exec(ctx, s.db,
		`INSERT INTO parse_cache (key, path, created_at, payload)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET created_at = excluded.created_at, payload = excluded.payload`,
		key, path, time.Now().Unix(), payload)
	if err != nil {
		return fmt.Errorf("cache: put: %w", err)
	}
	return nil
}

// Invalidate drops every entry for path, regardless of options or mtime.
func (s *Store) Invalidate(ctx context.Context, path string) error {
	_, err := dbopen.Exec(ctx, s.db, `DELETE FROM parse_cache WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("cache: invalidate: %w", err)
	}
	return nil
}

// Prune deletes entries stored before the cutoff and returns the count.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).Unix()
	res, err := dbopen.Exec(ctx, s.db,
		`DELETE FROM parse_cache WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cache: prune: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
