package repository

import (
	"context"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/model"
	"github.com/templui/linkstash/internal/sqlclient"
)

const folderColumns = `id, user_id, name, created_at`

func scanFolder(row sqlclient.Row) *model.Folder {
	return &model.Folder{
		ID:        row.Int64("id"),
		UserID:    row.String("user_id"),
		Name:      row.String("name"),
		CreatedAt: row.Time("created_at"),
	}
}

// CreateFolder fails with apperr.ErrConflict when the scope already has a
// folder with that name.
func (r *Repository) CreateFolder(ctx context.Context, name string) (*model.Folder, error) {
	rows, err := r.write(ctx,
		`INSERT INTO folders (user_id, name, created_at) VALUES (?, ?, ?) RETURNING `+folderColumns,
		r.owner(), name, r.nowMillis())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.Store("insert returned no row", nil)
	}
	return scanFolder(rows[0]), nil
}

func (r *Repository) Folders(ctx context.Context) ([]*model.Folder, error) {
	rows, err := r.read(ctx, `SELECT `+folderColumns+` FROM folders WHERE user_id = ? ORDER BY name`, r.owner())
	if err != nil {
		return nil, err
	}
	folders := make([]*model.Folder, 0, len(rows))
	for _, row := range rows {
		folders = append(folders, scanFolder(row))
	}
	return folders, nil
}

func (r *Repository) FolderByID(ctx context.Context, id int64) (*model.Folder, error) {
	rows, err := r.read(ctx, `SELECT `+folderColumns+` FROM folders WHERE id = ? AND user_id = ?`, id, r.owner())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrFolderNotFound
	}
	return scanFolder(rows[0]), nil
}

// RenameFolder returns nil, nil when the folder is not the scope's.
func (r *Repository) RenameFolder(ctx context.Context, id int64, name string) (*model.Folder, error) {
	rows, err := r.write(ctx,
		`UPDATE folders SET name = ? WHERE id = ? AND user_id = ? RETURNING `+folderColumns,
		name, id, r.owner())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return scanFolder(rows[0]), nil
}

// DeleteFolder removes a folder. Its links stay and lose their folder.
func (r *Repository) DeleteFolder(ctx context.Context, id int64) (bool, error) {
	out, err := r.exec.Batch(ctx, []sqlclient.Statement{
		sqlclient.NewStatement(`UPDATE links SET folder_id = NULL, updated_at = ? WHERE folder_id = ? AND user_id = ?`,
			r.nowMillis(), id, r.owner()),
		sqlclient.NewStatement(`DELETE FROM folders WHERE id = ? AND user_id = ? RETURNING id`, id, r.owner()),
	})
	if err != nil {
		return false, err
	}
	return len(out[1]) > 0, nil
}
