package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/model"
	"github.com/templui/linkstash/internal/repository"
)

func TestUploadStoresUnderOwnerPrefix(t *testing.T) {
	exec, _ := setupExecutor(t)
	store := newMemStore()
	svc := NewUploadService(exec, store)
	ctx := context.Background()
	alice := mustScope(t, "alice")

	upload, err := svc.Upload(ctx, alice, pngFile("Shot.PNG"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(upload.ObjectKey, "users/alice/uploads/"))
	assert.True(t, strings.HasSuffix(upload.ObjectKey, ".png"))
	assert.Equal(t, "image/png", upload.ContentType)
	assert.Equal(t, testPublicBase+"/"+upload.ObjectKey, upload.URL)
	assert.True(t, store.has(upload.ObjectKey))

	uploads, err := svc.List(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, uploads, 1)

	uploads, err = svc.List(ctx, mustScope(t, "bob"))
	require.NoError(t, err)
	assert.Empty(t, uploads)
}

func TestUploadRejectsInvalidFile(t *testing.T) {
	exec, _ := setupExecutor(t)
	store := newMemStore()
	svc := NewUploadService(exec, store)

	f := pngFile("shot.exe")
	_, err := svc.Upload(context.Background(), mustScope(t, "alice"), f)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, store.count())
}

func TestUploadRemovesObjectWhenRecordFails(t *testing.T) {
	exec, conn := setupExecutor(t)
	store := newMemStore()
	svc := NewUploadService(exec, store)

	require.NoError(t, conn.Close())

	_, err := svc.Upload(context.Background(), mustScope(t, "alice"), pngFile("shot.png"))
	require.Error(t, err)
	assert.Zero(t, store.count())
}

func TestUploadPutFailureWritesNoRecord(t *testing.T) {
	exec, _ := setupExecutor(t)
	store := newMemStore()
	store.putErr = errors.New("bucket unavailable")
	svc := NewUploadService(exec, store)
	ctx := context.Background()
	alice := mustScope(t, "alice")

	_, err := svc.Upload(ctx, alice, pngFile("shot.png"))
	require.Error(t, err)

	uploads, err := svc.List(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, uploads)
}

func TestDeleteUploadIsScoped(t *testing.T) {
	exec, _ := setupExecutor(t)
	store := newMemStore()
	svc := NewUploadService(exec, store)
	ctx := context.Background()
	alice := mustScope(t, "alice")

	upload, err := svc.Upload(ctx, alice, pngFile("shot.png"))
	require.NoError(t, err)

	_, err = svc.Get(ctx, mustScope(t, "bob"), upload.ID)
	assert.ErrorIs(t, err, repository.ErrUploadNotFound)

	got, err := svc.Get(ctx, alice, upload.ID)
	require.NoError(t, err)
	assert.Equal(t, upload.ObjectKey, got.ObjectKey)

	got, err = svc.ByKey(ctx, alice, upload.ObjectKey)
	require.NoError(t, err)
	assert.Equal(t, upload.ID, got.ID)
	_, err = svc.ByKey(ctx, mustScope(t, "bob"), upload.ObjectKey)
	assert.ErrorIs(t, err, repository.ErrUploadNotFound)

	err = svc.Delete(ctx, mustScope(t, "bob"), upload.ID)
	assert.ErrorIs(t, err, repository.ErrUploadNotFound)
	assert.True(t, store.has(upload.ObjectKey))

	require.NoError(t, svc.Delete(ctx, alice, upload.ID))
	assert.False(t, store.has(upload.ObjectKey))
}

func TestUploadScreenshot(t *testing.T) {
	exec, _ := setupExecutor(t)
	store := newMemStore()
	svc := NewUploadService(exec, store)
	links := newLinkService(exec)
	ctx := context.Background()
	alice := mustScope(t, "alice")

	link, err := links.Create(ctx, alice, CreateLinkInput{LinkInput: model.LinkInput{URL: "https://example.com"}})
	require.NoError(t, err)

	_, err = svc.UploadScreenshot(ctx, mustScope(t, "bob"), link.ID, pngFile("shot.png"))
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	assert.Zero(t, store.count())

	updated, err := svc.UploadScreenshot(ctx, alice, link.ID, pngFile("shot.png"))
	require.NoError(t, err)
	require.NotNil(t, updated.ScreenshotURL)
	assert.True(t, strings.HasPrefix(*updated.ScreenshotURL, testPublicBase+"/users/alice/screenshots/"))
	assert.Equal(t, 1, store.count())
}
