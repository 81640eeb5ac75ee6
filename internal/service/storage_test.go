package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageScanAndCleanup(t *testing.T) {
	exec, _ := setupExecutor(t)
	store := newMemStore()
	uploads := NewUploadService(exec, store)
	svc := NewStorageService(exec, store)
	ctx := context.Background()
	alice := mustScope(t, "alice")

	kept, err := uploads.Upload(ctx, alice, pngFile("kept.png"))
	require.NoError(t, err)

	orphan := "users/alice/uploads/lost.png"
	foreign := "users/bob/uploads/other.png"
	require.NoError(t, store.Put(ctx, orphan, strings.NewReader("x"), 1, "image/png"))
	require.NoError(t, store.Put(ctx, foreign, strings.NewReader("y"), 1, "image/png"))

	report, err := svc.Scan(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.TotalFiles)
	assert.Equal(t, 1, report.Summary.OrphanFiles)

	dry, err := svc.Cleanup(ctx, alice, nil, true)
	require.NoError(t, err)
	assert.True(t, dry.DryRun)
	assert.Equal(t, []string{orphan}, dry.Keys)
	assert.Nil(t, dry.Result)
	assert.True(t, store.has(orphan))

	res, err := svc.Cleanup(ctx, alice, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Result.Deleted)
	assert.False(t, store.has(orphan))
	assert.True(t, store.has(kept.ObjectKey))
	assert.True(t, store.has(foreign))
}

func TestStorageCleanupSkipsForeignKeys(t *testing.T) {
	exec, _ := setupExecutor(t)
	store := newMemStore()
	svc := NewStorageService(exec, store)
	ctx := context.Background()

	foreign := "users/bob/uploads/other.png"
	require.NoError(t, store.Put(ctx, foreign, strings.NewReader("y"), 1, "image/png"))

	res, err := svc.Cleanup(ctx, mustScope(t, "alice"), []string{foreign}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Result.Skipped)
	assert.True(t, store.has(foreign))
}
