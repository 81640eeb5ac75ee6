package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/templui/linkstash/internal/model"
	"github.com/templui/linkstash/internal/repository"
	"github.com/templui/linkstash/internal/sqlclient"
	"github.com/templui/linkstash/internal/storage"
	"github.com/templui/linkstash/internal/validation"
)

// UploadFile is a file received from a client, not yet stored.
type UploadFile struct {
	Filename string
	Size     int64
	Body     io.ReadSeeker
}

// UploadService stores owner files in the object store and keeps a record of
// each one, so the reconciler can tell referenced objects from orphans.
type UploadService struct {
	exec  sqlclient.Executor
	store storage.ObjectStore
}

func NewUploadService(exec sqlclient.Executor, store storage.ObjectStore) *UploadService {
	return &UploadService{exec: exec, store: store}
}

// Upload validates and stores a file under the owner's uploads/ prefix, then
// records it. The object is removed again if the record cannot be written.
func (s *UploadService) Upload(ctx context.Context, scope repository.Scope, f UploadFile) (*model.Upload, error) {
	contentType, err := validation.Sniff(f.Body, f.Filename, f.Size, validation.ImageConstraints, validation.DocumentConstraints)
	if err != nil {
		return nil, err
	}

	key := objectKey(scope, "uploads", f.Filename)
	if err := s.store.Put(ctx, key, f.Body, f.Size, contentType); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	upload, err := repository.New(s.exec, scope).CreateUpload(ctx, key, f.Size, contentType, s.store.PublicURL(key))
	if err != nil {
		s.cleanup(ctx, key)
		return nil, fmt.Errorf("failed to create upload record: %w", err)
	}

	slog.InfoContext(ctx, "file uploaded", "owner", scope.OwnerID(), "key", key, "size", f.Size)
	return upload, nil
}

// UploadScreenshot stores an image and attaches it to one of the owner's links.
func (s *UploadService) UploadScreenshot(ctx context.Context, scope repository.Scope, linkID int64, f UploadFile) (*model.Link, error) {
	contentType, err := validation.Sniff(f.Body, f.Filename, f.Size, validation.ImageConstraints)
	if err != nil {
		return nil, err
	}

	repo := repository.New(s.exec, scope)
	if _, err := repo.LinkByID(ctx, linkID); err != nil {
		return nil, err
	}

	key := objectKey(scope, "screenshots", f.Filename)
	if err := s.store.Put(ctx, key, f.Body, f.Size, contentType); err != nil {
		return nil, fmt.Errorf("failed to save screenshot: %w", err)
	}

	url := s.store.PublicURL(key)
	ok, err := repo.SetLinkScreenshot(ctx, linkID, &url)
	if err != nil || !ok {
		s.cleanup(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to attach screenshot: %w", err)
		}
		return nil, repository.ErrLinkNotFound
	}

	return repo.LinkByID(ctx, linkID)
}

func (s *UploadService) List(ctx context.Context, scope repository.Scope) ([]*model.Upload, error) {
	return repository.New(s.exec, scope).Uploads(ctx)
}

func (s *UploadService) Get(ctx context.Context, scope repository.Scope, id int64) (*model.Upload, error) {
	return repository.New(s.exec, scope).UploadByID(ctx, id)
}

// ByKey finds the upload stored under an object key, e.g. one listed by a
// storage scan.
func (s *UploadService) ByKey(ctx context.Context, scope repository.Scope, key string) (*model.Upload, error) {
	return repository.New(s.exec, scope).UploadByKey(ctx, key)
}

// Delete removes the record first, then the object. An object left behind
// by a failed delete is an orphan the reconciler will report.
func (s *UploadService) Delete(ctx context.Context, scope repository.Scope, id int64) error {
	upload, err := repository.New(s.exec, scope).DeleteUpload(ctx, id)
	if err != nil {
		return err
	}
	if upload == nil {
		return repository.ErrUploadNotFound
	}
	s.cleanup(ctx, upload.ObjectKey)
	return nil
}

func (s *UploadService) cleanup(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		slog.ErrorContext(ctx, "failed to delete object from storage", "error", err, "key", key)
	}
}

func objectKey(scope repository.Scope, folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return scope.ObjectPrefix() + folder + "/" + uuid.New().String() + ext
}
