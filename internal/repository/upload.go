package repository

import (
	"context"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/model"
	"github.com/templui/linkstash/internal/sqlclient"
)

const uploadColumns = `id, user_id, object_key, size, content_type, url, created_at`

func scanUpload(row sqlclient.Row) *model.Upload {
	return &model.Upload{
		ID:          row.Int64("id"),
		UserID:      row.String("user_id"),
		ObjectKey:   row.String("object_key"),
		Size:        row.Int64("size"),
		ContentType: row.String("content_type"),
		URL:         row.String("url"),
		CreatedAt:   row.Time("created_at"),
	}
}

// CreateUpload records an object stored under the scope's prefix. Keys outside
// the prefix are rejected before reaching the store.
func (r *Repository) CreateUpload(ctx context.Context, key string, size int64, contentType, url string) (*model.Upload, error) {
	if !r.scope.Owns(key) {
		return nil, apperr.Validation("object key is outside the owner's prefix")
	}
	rows, err := r.write(ctx,
		`INSERT INTO uploads (user_id, object_key, size, content_type, url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING `+uploadColumns,
		r.owner(), key, size, contentType, url, r.nowMillis())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.Store("insert returned no row", nil)
	}
	return scanUpload(rows[0]), nil
}

func (r *Repository) Uploads(ctx context.Context) ([]*model.Upload, error) {
	rows, err := r.read(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE user_id = ? ORDER BY created_at DESC, id DESC`, r.owner())
	if err != nil {
		return nil, err
	}
	uploads := make([]*model.Upload, 0, len(rows))
	for _, row := range rows {
		uploads = append(uploads, scanUpload(row))
	}
	return uploads, nil
}

func (r *Repository) UploadByID(ctx context.Context, id int64) (*model.Upload, error) {
	rows, err := r.read(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE id = ? AND user_id = ?`, id, r.owner())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrUploadNotFound
	}
	return scanUpload(rows[0]), nil
}

// DeleteUpload removes the record and returns it so the caller can delete the
// object. Returns nil, nil when the upload is not the scope's.
func (r *Repository) DeleteUpload(ctx context.Context, id int64) (*model.Upload, error) {
	rows, err := r.write(ctx, `DELETE FROM uploads WHERE id = ? AND user_id = ? RETURNING `+uploadColumns, id, r.owner())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return scanUpload(rows[0]), nil
}

// UploadKeys returns the object keys of every upload the scope has recorded.
func (r *Repository) UploadKeys(ctx context.Context) ([]string, error) {
	rows, err := r.read(ctx, `SELECT object_key FROM uploads WHERE user_id = ?`, r.owner())
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.String("object_key"))
	}
	return keys, nil
}

// UploadByKey finds the upload recorded for an object key. Keys under another
// owner's prefix are never found.
func (r *Repository) UploadByKey(ctx context.Context, key string) (*model.Upload, error) {
	rows, err := r.read(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE object_key = ? AND user_id = ?`, key, r.owner())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrUploadNotFound
	}
	return scanUpload(rows[0]), nil
}
