package storage

import (
	"context"
	"io"
	"time"
)

// MaxDeleteBatch is the most keys one batch delete call accepts.
const MaxDeleteBatch = 1000

// Object is a stored object as the listing reports it. It carries no owner.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// KeyError is a per-key failure reported by a batch delete.
type KeyError struct {
	Key     string `json:"key"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ObjectStore is the object storage the application needs. Works with AWS S3,
// Cloudflare R2, MinIO and other S3-compatible services.
type ObjectStore interface {
	// List returns every object under prefix, following pagination.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Put stores body at key.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// Delete removes a single object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteBatch removes up to MaxDeleteBatch keys in one call. Keys the store
	// could not delete come back as KeyErrors; the error return is reserved
	// for the call itself failing.
	DeleteBatch(ctx context.Context, keys []string) ([]KeyError, error)

	// PublicURL returns the public URL for key.
	PublicURL(key string) string

	// PublicBase is the prefix every PublicURL starts with.
	PublicBase() string
}
