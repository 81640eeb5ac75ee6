package repository

import (
	"context"
	"fmt"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/chunk"
	"github.com/templui/linkstash/internal/model"
	"github.com/templui/linkstash/internal/sqlclient"
)

const tagColumns = `id, user_id, name, created_at`

func scanTag(row sqlclient.Row) *model.Tag {
	return &model.Tag{
		ID:        row.Int64("id"),
		UserID:    row.String("user_id"),
		Name:      row.String("name"),
		CreatedAt: row.Time("created_at"),
	}
}

func (r *Repository) CreateTag(ctx context.Context, name string) (*model.Tag, error) {
	rows, err := r.write(ctx,
		`INSERT INTO tags (user_id, name, created_at) VALUES (?, ?, ?) RETURNING `+tagColumns,
		r.owner(), name, r.nowMillis())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.Store("insert returned no row", nil)
	}
	return scanTag(rows[0]), nil
}

func (r *Repository) Tags(ctx context.Context) ([]*model.Tag, error) {
	rows, err := r.read(ctx, `SELECT `+tagColumns+` FROM tags WHERE user_id = ? ORDER BY name`, r.owner())
	if err != nil {
		return nil, err
	}
	tags := make([]*model.Tag, 0, len(rows))
	for _, row := range rows {
		tags = append(tags, scanTag(row))
	}
	return tags, nil
}

// DeleteTag removes a tag and detaches it from every link.
func (r *Repository) DeleteTag(ctx context.Context, id int64) (bool, error) {
	out, err := r.exec.Batch(ctx, []sqlclient.Statement{
		sqlclient.NewStatement(`DELETE FROM link_tags WHERE tag_id = ? AND user_id = ?`, id, r.owner()),
		sqlclient.NewStatement(`DELETE FROM tags WHERE id = ? AND user_id = ? RETURNING id`, id, r.owner()),
	})
	if err != nil {
		return false, err
	}
	return len(out[1]) > 0, nil
}

// SetLinkTags replaces a link's tags in one atomic batch. Tag ids the scope
// does not own are dropped silently. Reports false when the link is not the
// scope's, in which case nothing changes.
func (r *Repository) SetLinkTags(ctx context.Context, linkID int64, tagIDs []int64) (bool, error) {
	tagIDs = chunk.Unique(tagIDs)

	stmts := []sqlclient.Statement{
		sqlclient.NewStatement(`SELECT id FROM links WHERE id = ? AND user_id = ?`, linkID, r.owner()),
		sqlclient.NewStatement(`DELETE FROM link_tags WHERE link_id = ? AND user_id = ?`, linkID, r.owner()),
	}
	for _, part := range chunk.Split(tagIDs, ManyByIDsChunkSize) {
		params := []any{linkID, r.owner(), r.owner()}
		for _, id := range part {
			params = append(params, id)
		}
		stmts = append(stmts, sqlclient.NewStatement(fmt.Sprintf(
			`INSERT INTO link_tags (link_id, tag_id, user_id)
			 SELECT l.id, t.id, l.user_id FROM links l, tags t
			 WHERE l.id = ? AND l.user_id = ? AND t.user_id = ? AND t.id IN (%s)`,
			placeholders(len(part))), params...))
	}

	out, err := r.exec.Batch(ctx, stmts)
	if err != nil {
		return false, err
	}
	return len(out[0]) > 0, nil
}

// LinkTags returns the tag ids attached to each of the scope's links.
func (r *Repository) LinkTags(ctx context.Context) ([]model.LinkTag, error) {
	rows, err := r.read(ctx, `SELECT link_id, tag_id FROM link_tags WHERE user_id = ? ORDER BY link_id, tag_id`, r.owner())
	if err != nil {
		return nil, err
	}
	return scanLinkTags(rows), nil
}

// TagsForLink returns the scope's tags attached to one link.
func (r *Repository) TagsForLink(ctx context.Context, linkID int64) ([]*model.Tag, error) {
	rows, err := r.read(ctx,
		`SELECT t.id, t.user_id, t.name, t.created_at FROM tags t
		 JOIN link_tags lt ON lt.tag_id = t.id
		 WHERE lt.link_id = ? AND lt.user_id = ? AND t.user_id = ?
		 ORDER BY t.name`,
		linkID, r.owner(), r.owner())
	if err != nil {
		return nil, err
	}
	tags := make([]*model.Tag, 0, len(rows))
	for _, row := range rows {
		tags = append(tags, scanTag(row))
	}
	return tags, nil
}

func scanLinkTags(rows []sqlclient.Row) []model.LinkTag {
	out := make([]model.LinkTag, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.LinkTag{LinkID: row.Int64("link_id"), TagID: row.Int64("tag_id")})
	}
	return out
}
