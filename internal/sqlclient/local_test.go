package sqlclient

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/linkstash/internal/apperr"
)

func setupLocal(t *testing.T) *Local {
	t.Helper()
	db, err := sqlx.Connect("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE links (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  slug TEXT NOT NULL UNIQUE,
  url TEXT NOT NULL
);`)
	require.NoError(t, err)
	return NewLocal(db, 0)
}

func countLinks(t *testing.T, l *Local) int {
	t.Helper()
	var n int
	require.NoError(t, l.DB().Get(&n, `SELECT COUNT(*) FROM links`))
	return n
}

func TestLocalQueryReturnsInsertedRow(t *testing.T) {
	l := setupLocal(t)
	ctx := context.Background()

	rows, err := l.Query(ctx, `INSERT INTO links (slug, url) VALUES (?, ?) RETURNING id, slug, url`, "abc", "https://example.com")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].Int64("id"))
	assert.Equal(t, "abc", rows[0].String("slug"))

	rows, err = l.Query(ctx, `SELECT url FROM links WHERE slug = ?`, "abc")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "https://example.com", rows[0].String("url"))
}

func TestLocalBatchIsAtomic(t *testing.T) {
	l := setupLocal(t)
	ctx := context.Background()

	_, err := l.Query(ctx, `INSERT INTO links (slug, url) VALUES (?, ?)`, "taken", "https://a.example")
	require.NoError(t, err)

	_, err = l.Batch(ctx, []Statement{
		NewStatement(`INSERT INTO links (slug, url) VALUES (?, ?)`, "first", "https://b.example"),
		NewStatement(`INSERT INTO links (slug, url) VALUES (?, ?)`, "taken", "https://c.example"),
		NewStatement(`INSERT INTO links (slug, url) VALUES (?, ?)`, "third", "https://d.example"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	assert.Equal(t, 1, countLinks(t, l))
	rows, err := l.Query(ctx, `SELECT slug FROM links WHERE slug IN (?, ?)`, "first", "third")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLocalBatchReturnsRowsPerStatement(t *testing.T) {
	l := setupLocal(t)

	out, err := l.Batch(context.Background(), []Statement{
		NewStatement(`INSERT INTO links (slug, url) VALUES (?, ?) RETURNING id`, "a", "https://a.example"),
		NewStatement(`DELETE FROM links WHERE slug = ?`, "nothing"),
		NewStatement(`SELECT slug FROM links ORDER BY id`),
	})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Len(t, out[0], 1)
	assert.Empty(t, out[1])
	require.Len(t, out[2], 1)
	assert.Equal(t, "a", out[2][0].String("slug"))
}

func TestLocalEmptyBatch(t *testing.T) {
	l := setupLocal(t)

	out, err := l.Batch(context.Background(), []Statement{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestLocalStoreErrorIsClassified(t *testing.T) {
	l := setupLocal(t)

	_, err := l.Query(context.Background(), `SELECT * FROM missing_table`)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStore)
	assert.NotContains(t, err.Error(), "missing_table")
}

func TestLocalCanceledContextIsTransient(t *testing.T) {
	l := setupLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Query(ctx, `SELECT 1`)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrTransient)
}
