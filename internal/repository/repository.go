// Package repository is the scoped data access layer. A Repository is bound
// to one owner at construction; every read filters by that owner and every
// write carries it in its predicate. Cross-owner access is not expressible
// through this API: no method takes an owner id.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/retry"
	"github.com/templui/linkstash/internal/sqlclient"
)

// ManyByIDsChunkSize is how many ids go into one IN (...) lookup. The remote
// store accepts at most 100 bound parameters per statement and the owner
// predicate takes one more.
const ManyByIDsChunkSize = 90

// maxConcurrentChunks bounds in-flight chunk reads for one bulk lookup.
const maxConcurrentChunks = 4

var (
	ErrLinkNotFound   = apperr.NotFound("link not found")
	ErrFolderNotFound = apperr.NotFound("folder not found")
	ErrTagNotFound    = apperr.NotFound("tag not found")
	ErrUploadNotFound = apperr.NotFound("upload not found")
)

// defaultReadPolicy retries reads that failed transiently. Writes are never
// retried here: a timed-out write may still have landed.
var defaultReadPolicy = retry.Policy{MaxAttempts: 2, Delay: 50 * time.Millisecond}

type Repository struct {
	exec       sqlclient.Executor
	scope      Scope
	readPolicy retry.Policy
	now        func() time.Time
}

// New binds exec to scope. A zero Scope is a programming error.
func New(exec sqlclient.Executor, scope Scope) *Repository {
	if scope.IsZero() {
		panic("repository: New called with a zero Scope")
	}
	return &Repository{
		exec:       exec,
		scope:      scope,
		readPolicy: defaultReadPolicy,
		now:        time.Now,
	}
}

func (r *Repository) Scope() Scope {
	return r.scope
}

func (r *Repository) owner() string {
	return r.scope.ownerID
}

func (r *Repository) nowMillis() int64 {
	return r.now().UnixMilli()
}

// read runs a SELECT, retrying transient failures.
func (r *Repository) read(ctx context.Context, sql string, params ...any) ([]sqlclient.Row, error) {
	return readWith(ctx, r.exec, r.readPolicy, sql, params...)
}

func (r *Repository) write(ctx context.Context, sql string, params ...any) ([]sqlclient.Row, error) {
	return r.exec.Query(ctx, sql, params...)
}

func readWith(ctx context.Context, exec sqlclient.Executor, p retry.Policy, sql string, params ...any) ([]sqlclient.Row, error) {
	var rows []sqlclient.Row
	err := p.Do(ctx, func(ctx context.Context, attempt int) error {
		var err error
		rows, err = exec.Query(ctx, sql, params...)
		if errors.Is(err, apperr.ErrTransient) {
			return retry.Retryable(err)
		}
		return err
	})
	return rows, err
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func nullMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func nullInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
