package service

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/templui/linkstash/internal/db"
	"github.com/templui/linkstash/internal/repository"
	"github.com/templui/linkstash/internal/slug"
	"github.com/templui/linkstash/internal/sqlclient"
	"github.com/templui/linkstash/internal/storage"
)

const testPublicBase = "https://cdn.example.com"

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func setupExecutor(t *testing.T) (sqlclient.Executor, *sqlx.DB) {
	t.Helper()
	conn, err := db.Init("sqlite", filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))
	return sqlclient.NewLocal(conn, 0), conn
}

func mustScope(t *testing.T, owner string) repository.Scope {
	t.Helper()
	s, err := repository.NewScope(owner)
	require.NoError(t, err)
	return s
}

func newLinkService(exec sqlclient.Executor, opts ...slug.Option) *LinkService {
	global := repository.NewGlobal(exec)
	return NewLinkService(exec, slug.NewAllocator(global, opts...), NewRedirectService(global, 0, 0))
}

func pngFile(name string) UploadFile {
	return UploadFile{Filename: name, Size: int64(len(pngBytes)), Body: bytes.NewReader(pngBytes)}
}

// memStore is an in-memory storage.ObjectStore.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) List(_ context.Context, prefix string) ([]storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.Object
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.Object{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (m *memStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStore) DeleteBatch(ctx context.Context, keys []string) ([]storage.KeyError, error) {
	for _, k := range keys {
		_ = m.Delete(ctx, k)
	}
	return nil, nil
}

func (m *memStore) PublicURL(key string) string { return testPublicBase + "/" + key }
func (m *memStore) PublicBase() string          { return testPublicBase }

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
