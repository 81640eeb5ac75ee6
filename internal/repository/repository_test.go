package repository

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/db"
	"github.com/templui/linkstash/internal/sqlclient"
)

// fakeExecutor records every statement and answers SELECT ... IN (...) lookups
// by echoing one row per id parameter.
type fakeExecutor struct {
	mu      sync.Mutex
	queries []sqlclient.Statement
	fail    map[int]error // call index -> error
}

func (f *fakeExecutor) Query(_ context.Context, sql string, params ...any) ([]sqlclient.Row, error) {
	f.mu.Lock()
	idx := len(f.queries)
	f.queries = append(f.queries, sqlclient.NewStatement(sql, params...))
	err := f.fail[idx]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	rows := []sqlclient.Row{}
	if strings.Contains(sql, " IN (") && len(params) > 0 {
		owner := params[0]
		for _, p := range params[1:] {
			rows = append(rows, sqlclient.Row{"id": p, "user_id": owner, "slug": "s", "url": "https://example.com"})
		}
	}
	return rows, nil
}

func (f *fakeExecutor) Batch(_ context.Context, stmts []sqlclient.Statement) ([][]sqlclient.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, stmts...)
	out := make([][]sqlclient.Row, len(stmts))
	for i := range out {
		out[i] = []sqlclient.Row{}
	}
	return out, nil
}

func mustScope(t *testing.T, owner string) Scope {
	t.Helper()
	s, err := NewScope(owner)
	require.NoError(t, err)
	return s
}

func setupStore(t *testing.T) sqlclient.Executor {
	t.Helper()
	conn, err := db.Init("sqlite", filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))
	return sqlclient.NewLocal(conn, 0)
}

func TestNewPanicsOnZeroScope(t *testing.T) {
	assert.Panics(t, func() { New(&fakeExecutor{}, Scope{}) })
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}

func TestLinksByIDsChunksLookups(t *testing.T) {
	exec := &fakeExecutor{}
	repo := New(exec, mustScope(t, "alice"))

	ids := make([]int64, 250)
	for i := range ids {
		ids[i] = int64(i + 1)
	}

	links, err := repo.LinksByIDs(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, links, 250)

	require.Len(t, exec.queries, 3)
	var sizes []int
	for _, q := range exec.queries {
		assert.Equal(t, "alice", q.Params[0], "owner predicate comes first")
		assert.LessOrEqual(t, len(q.Params), 100)
		sizes = append(sizes, len(q.Params)-1)
	}
	assert.ElementsMatch(t, []int{90, 90, 70}, sizes)
}

func TestLinksByIDsDeduplicatesAndSkipsEmpty(t *testing.T) {
	exec := &fakeExecutor{}
	repo := New(exec, mustScope(t, "alice"))

	links, err := repo.LinksByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, links)
	assert.Empty(t, exec.queries)

	links, err = repo.LinksByIDs(context.Background(), []int64{7, 7, 8})
	require.NoError(t, err)
	assert.Len(t, links, 2)
	require.Len(t, exec.queries, 1)
	assert.Equal(t, []any{"alice", int64(7), int64(8)}, exec.queries[0].Params)
}

func TestLinksByIDsFailsWhenAnyChunkFails(t *testing.T) {
	exec := &fakeExecutor{fail: map[int]error{
		0: apperr.Store("boom", nil),
	}}
	repo := New(exec, mustScope(t, "alice"))

	ids := make([]int64, 100)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	_, err := repo.LinksByIDs(context.Background(), ids)
	assert.ErrorIs(t, err, apperr.ErrStore)
}

func TestReadRetriesTransientFailure(t *testing.T) {
	exec := &fakeExecutor{fail: map[int]error{
		0: apperr.Transient("busy", nil),
	}}
	repo := New(exec, mustScope(t, "alice"))
	repo.readPolicy.Delay = time.Millisecond

	_, err := repo.Folders(context.Background())
	require.NoError(t, err)
	assert.Len(t, exec.queries, 2)
}

func TestWriteIsNotRetried(t *testing.T) {
	exec := &fakeExecutor{fail: map[int]error{
		0: apperr.Transient("busy", nil),
	}}
	repo := New(exec, mustScope(t, "alice"))

	_, err := repo.CreateFolder(context.Background(), "work")
	assert.ErrorIs(t, err, apperr.ErrTransient)
	assert.Len(t, exec.queries, 1)
}

func TestScopeIsAppliedToEveryStatement(t *testing.T) {
	exec := &fakeExecutor{}
	repo := New(exec, mustScope(t, "alice"))
	ctx := context.Background()

	_, _ = repo.LinkByID(ctx, 1)
	_, _ = repo.Links(ctx, LinkFilter{Search: "x", Limit: 10})
	_, _ = repo.DeleteLink(ctx, 1)
	_, _ = repo.DeleteFolder(ctx, 1)
	_, _ = repo.DeleteTag(ctx, 1)
	_, _ = repo.SetLinkTags(ctx, 1, []int64{1, 2})
	_, _ = repo.UploadKeys(ctx)
	_, _ = repo.ScreenshotURLs(ctx)

	require.NotEmpty(t, exec.queries)
	for _, q := range exec.queries {
		assert.Contains(t, q.SQL, "user_id = ?", q.SQL)
		assert.Contains(t, q.Params, "alice", q.SQL)
	}
}
