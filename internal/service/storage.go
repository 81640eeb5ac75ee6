package service

import (
	"context"

	"github.com/templui/linkstash/internal/reconcile"
	"github.com/templui/linkstash/internal/repository"
	"github.com/templui/linkstash/internal/sqlclient"
	"github.com/templui/linkstash/internal/storage"
)

// StorageService runs reconciliation scans and cleanups for one owner at a time.
type StorageService struct {
	exec  sqlclient.Executor
	store storage.ObjectStore
}

func NewStorageService(exec sqlclient.Executor, store storage.ObjectStore) *StorageService {
	return &StorageService{exec: exec, store: store}
}

func (s *StorageService) reconciler(scope repository.Scope) *reconcile.Reconciler {
	return reconcile.New(repository.New(s.exec, scope), s.store)
}

func (s *StorageService) Scan(ctx context.Context, scope repository.Scope) (*reconcile.Report, error) {
	return s.reconciler(scope).Scan(ctx)
}

// CleanupResult is a cleanup outcome. With DryRun set nothing was deleted
// and Keys lists what would have been.
type CleanupResult struct {
	DryRun bool                    `json:"dryRun"`
	Keys   []string                `json:"keys"`
	Result *reconcile.DeleteResult `json:"result,omitempty"`
}

// Cleanup deletes keys, or every current orphan when keys is nil.
func (s *StorageService) Cleanup(ctx context.Context, scope repository.Scope, keys []string, dryRun bool) (*CleanupResult, error) {
	r := s.reconciler(scope)

	if keys == nil {
		orphans, err := r.Orphans(ctx)
		if err != nil {
			return nil, err
		}
		keys = orphans
	}

	if dryRun {
		return &CleanupResult{DryRun: true, Keys: keys}, nil
	}

	// On a cancelled run res still accounts for the chunks that finished.
	res, err := r.Delete(ctx, keys)
	return &CleanupResult{Keys: keys, Result: res}, err
}
