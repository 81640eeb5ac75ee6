package repository

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/chunk"
	"github.com/templui/linkstash/internal/model"
	"github.com/templui/linkstash/internal/sqlclient"
)

const linkColumns = `id, user_id, slug, url, is_custom, folder_id, expires_at, clicks,
	meta_title, meta_description, meta_image, screenshot_url, note, created_at, updated_at`

// ownedFolder resolves a folder id to itself only when the scope owns it,
// otherwise to NULL. It takes the folder id and the owner as parameters.
const ownedFolder = `(SELECT id FROM folders WHERE id = ? AND user_id = ?)`

// likeEscaper makes a search term match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LinkFilter narrows Links. Zero values mean "no filter".
type LinkFilter struct {
	FolderID *int64
	TagID    *int64
	Search   string
	Limit    int
	Offset   int
}

func scanLink(row sqlclient.Row) *model.Link {
	return &model.Link{
		ID:              row.Int64("id"),
		UserID:          row.String("user_id"),
		Slug:            row.String("slug"),
		URL:             row.String("url"),
		IsCustom:        row.Bool("is_custom"),
		FolderID:        row.NullInt64("folder_id"),
		ExpiresAt:       row.NullTime("expires_at"),
		Clicks:          row.Int64("clicks"),
		MetaTitle:       row.NullString("meta_title"),
		MetaDescription: row.NullString("meta_description"),
		MetaImage:       row.NullString("meta_image"),
		ScreenshotURL:   row.NullString("screenshot_url"),
		Note:            row.NullString("note"),
		CreatedAt:       row.Time("created_at"),
		UpdatedAt:       row.Time("updated_at"),
	}
}

func scanLinks(rows []sqlclient.Row) []*model.Link {
	links := make([]*model.Link, 0, len(rows))
	for _, row := range rows {
		links = append(links, scanLink(row))
	}
	return links
}

// CreateLink inserts a link owned by the scope and returns the stored record,
// including its store-assigned id, from the same round trip. A folder the
// scope does not own is stored as no folder. A taken slug fails with
// apperr.ErrConflict.
func (r *Repository) CreateLink(ctx context.Context, slug string, custom bool, in model.LinkInput) (*model.Link, error) {
	now := r.nowMillis()
	query := `INSERT INTO links (user_id, slug, url, is_custom, folder_id, expires_at,
	              meta_title, meta_description, meta_image, note, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ` + ownedFolder + `, ?, ?, ?, ?, ?, ?, ?)
	          RETURNING ` + linkColumns

	rows, err := r.write(ctx, query,
		r.owner(),
		slug,
		in.URL,
		boolToInt(custom),
		nullInt(in.FolderID), r.owner(),
		nullMillis(in.ExpiresAt),
		nullString(in.MetaTitle),
		nullString(in.MetaDescription),
		nullString(in.MetaImage),
		nullString(in.Note),
		now,
		now,
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.Store("insert returned no row", nil)
	}
	return scanLink(rows[0]), nil
}

func (r *Repository) LinkByID(ctx context.Context, id int64) (*model.Link, error) {
	rows, err := r.read(ctx, `SELECT `+linkColumns+` FROM links WHERE id = ? AND user_id = ?`, id, r.owner())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrLinkNotFound
	}
	return scanLink(rows[0]), nil
}

func (r *Repository) LinkBySlug(ctx context.Context, slug string) (*model.Link, error) {
	rows, err := r.read(ctx, `SELECT `+linkColumns+` FROM links WHERE slug = ? AND user_id = ?`, slug, r.owner())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrLinkNotFound
	}
	return scanLink(rows[0]), nil
}

// Links lists the scope's links, newest first.
func (r *Repository) Links(ctx context.Context, f LinkFilter) ([]*model.Link, error) {
	var where []string
	params := []any{r.owner()}
	where = append(where, "user_id = ?")

	if f.FolderID != nil {
		where = append(where, "folder_id = ?")
		params = append(params, *f.FolderID)
	}
	if f.TagID != nil {
		where = append(where, "id IN (SELECT link_id FROM link_tags WHERE tag_id = ? AND user_id = ?)")
		params = append(params, *f.TagID, r.owner())
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + likeEscaper.Replace(s) + "%"
		where = append(where, `(url LIKE ? ESCAPE '\' OR slug LIKE ? ESCAPE '\' OR meta_title LIKE ? ESCAPE '\' OR note LIKE ? ESCAPE '\')`)
		params = append(params, like, like, like, like)
	}

	query := `SELECT ` + linkColumns + ` FROM links WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		params = append(params, f.Limit, max(f.Offset, 0))
	}

	rows, err := r.read(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	return scanLinks(rows), nil
}

// LinksByIDs fetches the scope's links among ids. Ids are looked up in chunks
// of ManyByIDsChunkSize; chunks are independent reads and run concurrently.
// The result holds every requested link that exists and belongs to the
// scope, in no particular order.
func (r *Repository) LinksByIDs(ctx context.Context, ids []int64) ([]*model.Link, error) {
	ids = chunk.Unique(ids)
	chunks := chunk.Split(ids, ManyByIDsChunkSize)
	if len(chunks) == 0 {
		return []*model.Link{}, nil
	}

	results := make([][]*model.Link, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChunks)

	for i, part := range chunks {
		g.Go(func() error {
			params := make([]any, 0, len(part)+1)
			params = append(params, r.owner())
			for _, id := range part {
				params = append(params, id)
			}
			query := fmt.Sprintf(`SELECT %s FROM links WHERE user_id = ? AND id IN (%s)`, linkColumns, placeholders(len(part)))

			rows, err := r.read(gctx, query, params...)
			if err != nil {
				return err
			}
			results[i] = scanLinks(rows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	links := make([]*model.Link, 0, len(ids))
	for _, part := range results {
		links = append(links, part...)
	}
	return links, nil
}

// UpdateLink replaces the editable fields of a link. The slug is not
// touched; see RenameLink. Returns nil, nil when the link does not exist or
// belongs to another owner.
func (r *Repository) UpdateLink(ctx context.Context, id int64, in model.LinkInput) (*model.Link, error) {
	query := `UPDATE links
	          SET url = ?, folder_id = ` + ownedFolder + `, expires_at = ?,
	              meta_title = ?, meta_description = ?, meta_image = ?, note = ?, updated_at = ?
	          WHERE id = ? AND user_id = ?
	          RETURNING ` + linkColumns

	rows, err := r.write(ctx, query,
		in.URL,
		nullInt(in.FolderID), r.owner(),
		nullMillis(in.ExpiresAt),
		nullString(in.MetaTitle),
		nullString(in.MetaDescription),
		nullString(in.MetaImage),
		nullString(in.Note),
		r.nowMillis(),
		id,
		r.owner(),
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return scanLink(rows[0]), nil
}

// RenameLink changes a link's slug. Renamed slugs count as custom. Returns
// nil, nil when the link is not the scope's; apperr.ErrConflict when the slug
// is taken.
func (r *Repository) RenameLink(ctx context.Context, id int64, slug string) (*model.Link, error) {
	rows, err := r.write(ctx,
		`UPDATE links SET slug = ?, is_custom = 1, updated_at = ? WHERE id = ? AND user_id = ? RETURNING `+linkColumns,
		slug, r.nowMillis(), id, r.owner())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return scanLink(rows[0]), nil
}

// SetLinkScreenshot records (or clears, with nil) a link's screenshot URL.
func (r *Repository) SetLinkScreenshot(ctx context.Context, id int64, url *string) (bool, error) {
	rows, err := r.write(ctx,
		`UPDATE links SET screenshot_url = ?, updated_at = ? WHERE id = ? AND user_id = ? RETURNING id`,
		nullString(url), r.nowMillis(), id, r.owner())
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// DeleteLink removes a link and its tag associations atomically. It reports
// false when there was nothing of the scope's to delete.
func (r *Repository) DeleteLink(ctx context.Context, id int64) (bool, error) {
	out, err := r.exec.Batch(ctx, []sqlclient.Statement{
		sqlclient.NewStatement(`DELETE FROM link_tags WHERE link_id = ? AND user_id = ?`, id, r.owner()),
		sqlclient.NewStatement(`DELETE FROM links WHERE id = ? AND user_id = ? RETURNING id`, id, r.owner()),
	})
	if err != nil {
		return false, err
	}
	return len(out[1]) > 0, nil
}

// ScreenshotURLs returns every screenshot URL recorded on the scope's links.
func (r *Repository) ScreenshotURLs(ctx context.Context) ([]string, error) {
	rows, err := r.read(ctx,
		`SELECT screenshot_url FROM links WHERE user_id = ? AND screenshot_url IS NOT NULL`, r.owner())
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(rows))
	for _, row := range rows {
		urls = append(urls, row.String("screenshot_url"))
	}
	return urls, nil
}
