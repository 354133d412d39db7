package cache_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/filepipe/filepipe/cache"
	"github.com/filepipe/filepipe/dbopen"
	"github.com/filepipe/filepipe/parse"
)

func newStore(t *testing.T) *cache.Store {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(cache.Schema))
	return cache.New(db)
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	path := writeTemp(t, "a.txt", "hello")
	info, err := os.Stat(path)
	require.NoError(t, err)

	key, err := cache.Key(path, info, parse.Options{})
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok, "empty store should miss")

	env := parse.Envelope{
		Success:  true,
		Type:     "text",
		FilePath: path,
		FileName: "a.txt",
		FileSize: 5,
		Data:     map[string]any{"content": "hello"},
		Metadata: parse.Metadata{"truncated": false},
	}
	require.NoError(t, s.Put(ctx, key, path, env))

	got, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Success)
	require.Equal(t, "text", got.Type)
	require.Equal(t, int64(5), got.FileSize)
	require.Equal(t, false, got.Metadata["truncated"])
}

func TestStore_FailuresNotCached(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	env := parse.Envelope{
		Success: false,
		Error:   &parse.Failure{Kind: parse.KindNotFound, Message: "no such file"},
	}
	require.NoError(t, s.Put(ctx, "k1", "/tmp/missing.txt", env))

	_, ok, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKey_ChangesWithOptionsAndContent(t *testing.T) {
	path := writeTemp(t, "a.csv", "a,b\n1,2\n")
	info, err := os.Stat(path)
	require.NoError(t, err)

	k1, err := cache.Key(path, info, parse.Options{})
	require.NoError(t, err)
	k2, err := cache.Key(path, info, parse.Options{MaxRows: 50})
	require.NoError(t, err)
	require.NotEqual(t, k1, k2, "options must be part of the key")

	// Append a byte so the size changes.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("3,4\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	info2, err := os.Stat(path)
	require.NoError(t, err)
	k3, err := cache.Key(path, info2, parse.Options{})
	require.NoError(t, err)
	require.NotEqual(t, k1, k3, "content change must change the key")
}

func TestStore_Invalidate(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	env := parse.Envelope{Success: true, Type: "text"}
	require.NoError(t, s.Put(ctx, "k1", "/data/a.txt", env))
	require.NoError(t, s.Put(ctx, "k2", "/data/a.txt", env))
	require.NoError(t, s.Put(ctx, "k3", "/data/b.txt", env))

	require.NoError(t, s.Invalidate(ctx, "/data/a.txt"))

	_, ok, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = s.Get(ctx, "k3")
	require.NoError(t, err)
	require.True(t, ok, "other paths must survive")
}

func TestStore_Prune(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	env := parse.Envelope{Success: true, Type: "text"}
	require.NoError(t, s.Put(ctx, "k1", "/data/a.txt", env))

	n, err := s.Prune(ctx, time.Hour)
	require.NoError(t, err)
	require.Zero(t, n, "fresh entries must survive an hour cutoff")

	n, err = s.Prune(ctx, -time.Second)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}
