package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/model"
	"github.com/templui/linkstash/internal/slug"
	"github.com/templui/linkstash/internal/sqlclient"
	"github.com/templui/linkstash/internal/validation"
)

// Export snapshots the scope's links, folders, tags and tag assignments. The
// reads go out as one batch so the snapshot is consistent.
func (r *Repository) Export(ctx context.Context, now time.Time) (*model.Export, error) {
	out, err := r.exec.Batch(ctx, []sqlclient.Statement{
		sqlclient.NewStatement(`SELECT `+linkColumns+` FROM links WHERE user_id = ? ORDER BY id`, r.owner()),
		sqlclient.NewStatement(`SELECT `+folderColumns+` FROM folders WHERE user_id = ? ORDER BY id`, r.owner()),
		sqlclient.NewStatement(`SELECT `+tagColumns+` FROM tags WHERE user_id = ? ORDER BY id`, r.owner()),
		sqlclient.NewStatement(`SELECT link_id, tag_id FROM link_tags WHERE user_id = ? ORDER BY link_id, tag_id`, r.owner()),
	})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	linkTags := scanLinkTags(out[3])
	tagsByLink := make(map[int64][]int64)
	for _, lt := range linkTags {
		tagsByLink[lt.LinkID] = append(tagsByLink[lt.LinkID], lt.TagID)
	}

	env := &model.Export{
		SchemaVersion: model.ExportSchemaVersion,
		ExportedAt:    now.UTC(),
		Links:         make([]model.ExportedLink, 0, len(out[0])),
		Folders:       make([]model.ExportedNamed, 0, len(out[1])),
		Tags:          make([]model.ExportedNamed, 0, len(out[2])),
		LinkTags:      linkTags,
	}
	for _, l := range scanLinks(out[0]) {
		tagIDs := tagsByLink[l.ID]
		if tagIDs == nil {
			tagIDs = []int64{}
		}
		env.Links = append(env.Links, model.ExportedLink{
			ID:              l.ID,
			URL:             l.URL,
			Slug:            l.Slug,
			IsCustom:        l.IsCustom,
			FolderID:        l.FolderID,
			TagIDs:          tagIDs,
			ExpiresAt:       l.ExpiresAt,
			Clicks:          l.Clicks,
			MetaTitle:       l.MetaTitle,
			MetaDescription: l.MetaDescription,
			MetaImage:       l.MetaImage,
			ScreenshotURL:   l.ScreenshotURL,
			Note:            l.Note,
			CreatedAt:       l.CreatedAt,
			UpdatedAt:       l.UpdatedAt,
		})
	}
	for _, row := range out[1] {
		f := scanFolder(row)
		env.Folders = append(env.Folders, model.ExportedNamed{ID: f.ID, Name: f.Name, CreatedAt: f.CreatedAt})
	}
	for _, row := range out[2] {
		t := scanTag(row)
		env.Tags = append(env.Tags, model.ExportedNamed{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt})
	}
	return env, nil
}

// Import recreates an export envelope under the bound scope. Folders and tags
// are matched by name and reused when they already exist. Envelope ids are
// remapped to the ids the store assigns. Links whose slug is already taken
// anywhere, in any letter case, are skipped and reported. Links that fail the
// slug or URL rules of the create path are rejected and reported.
func (r *Repository) Import(ctx context.Context, env *model.Export) (*model.ImportResult, error) {
	if env == nil {
		return nil, apperr.Validation("export envelope is required")
	}
	if env.SchemaVersion != model.ExportSchemaVersion {
		return nil, apperr.Validation(fmt.Sprintf("unsupported export schema version %d", env.SchemaVersion))
	}

	result := &model.ImportResult{SkippedSlugs: []string{}, Rejected: []model.RejectedLink{}}

	folderIDs, created, err := importNamed(ctx, env.Folders, r.Folders, r.CreateFolder, func(f *model.Folder) (int64, string) {
		return f.ID, f.Name
	})
	if err != nil {
		return nil, fmt.Errorf("import folders: %w", err)
	}
	result.Folders = created

	tagIDs, created, err := importNamed(ctx, env.Tags, r.Tags, r.CreateTag, func(t *model.Tag) (int64, string) {
		return t.ID, t.Name
	})
	if err != nil {
		return nil, fmt.Errorf("import tags: %w", err)
	}
	result.Tags = created

	linkIDs := make(map[int64]int64, len(env.Links))
	for _, l := range env.Links {
		id, err := r.importLink(ctx, l, folderIDs)
		if errors.Is(err, apperr.ErrConflict) {
			result.SkippedSlugs = append(result.SkippedSlugs, l.Slug)
			continue
		}
		if errors.Is(err, apperr.ErrValidation) {
			result.Rejected = append(result.Rejected, model.RejectedLink{Slug: l.Slug, Reason: apperr.Public(err)})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("import link %q: %w", l.Slug, err)
		}
		linkIDs[l.ID] = id
		result.Links++
	}

	var stmts []sqlclient.Statement
	seen := make(map[model.LinkTag]struct{})
	for _, l := range env.Links {
		newLink, ok := linkIDs[l.ID]
		if !ok {
			continue
		}
		for _, oldTag := range l.TagIDs {
			newTag, ok := tagIDs[oldTag]
			if !ok {
				continue
			}
			pair := model.LinkTag{LinkID: newLink, TagID: newTag}
			if _, dup := seen[pair]; dup {
				continue
			}
			seen[pair] = struct{}{}
			stmts = append(stmts, sqlclient.NewStatement(
				`INSERT INTO link_tags (link_id, tag_id, user_id) VALUES (?, ?, ?)`,
				newLink, newTag, r.owner()))
		}
	}
	if _, err := r.exec.Batch(ctx, stmts); err != nil {
		return nil, fmt.Errorf("import link tags: %w", err)
	}

	return result, nil
}

func (r *Repository) importLink(ctx context.Context, l model.ExportedLink, folderIDs map[int64]int64) (int64, error) {
	// Generated slugs are mixed case, so only custom slugs are lowercased.
	name := strings.TrimSpace(l.Slug)
	if l.IsCustom {
		name = slug.Sanitize(name)
	}
	if err := slug.Validate(name); err != nil {
		return 0, err
	}
	target, err := validation.ValidateURL(l.URL)
	if err != nil {
		return 0, err
	}
	taken, err := slugTaken(ctx, r.exec, r.readPolicy, name)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, apperr.Conflict("this short link is already taken", nil)
	}

	var folder *int64
	if l.FolderID != nil {
		if id, ok := folderIDs[*l.FolderID]; ok {
			folder = &id
		}
	}
	createdAt := l.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	updatedAt := l.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	rows, err := r.write(ctx,
		`INSERT INTO links (user_id, slug, url, is_custom, folder_id, expires_at, clicks,
		     meta_title, meta_description, meta_image, screenshot_url, note, created_at, updated_at)
		 VALUES (?, ?, ?, ?, `+ownedFolder+`, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		r.owner(),
		name,
		target,
		boolToInt(l.IsCustom),
		nullInt(folder), r.owner(),
		nullMillis(l.ExpiresAt),
		max(l.Clicks, 0),
		nullString(l.MetaTitle),
		nullString(l.MetaDescription),
		nullString(l.MetaImage),
		nullString(l.ScreenshotURL),
		nullString(l.Note),
		createdAt.UnixMilli(),
		updatedAt.UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, apperr.Store("insert returned no row", nil)
	}
	return rows[0].Int64("id"), nil
}

// importNamed maps envelope ids of folders or tags to ids owned by the scope,
// creating the names that do not exist yet. It returns the id map and how
// many records it created.
func importNamed[T any](
	ctx context.Context,
	named []model.ExportedNamed,
	list func(context.Context) ([]T, error),
	create func(context.Context, string) (T, error),
	key func(T) (int64, string),
) (map[int64]int64, int, error) {
	existing, err := list(ctx)
	if err != nil {
		return nil, 0, err
	}
	byName := make(map[string]int64, len(existing))
	for _, e := range existing {
		id, name := key(e)
		byName[name] = id
	}

	ids := make(map[int64]int64, len(named))
	created := 0
	for _, n := range named {
		name := strings.TrimSpace(n.Name)
		if name == "" {
			continue
		}
		if id, ok := byName[name]; ok {
			ids[n.ID] = id
			continue
		}
		rec, err := create(ctx, name)
		if err != nil {
			return nil, 0, err
		}
		id, _ := key(rec)
		byName[name] = id
		ids[n.ID] = id
		created++
	}
	return ids, created, nil
}
