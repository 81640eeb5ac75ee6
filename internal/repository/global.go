package repository

import (
	"context"
	"time"

	"github.com/templui/linkstash/internal/model"
	"github.com/templui/linkstash/internal/retry"
	"github.com/templui/linkstash/internal/sqlclient"
)

// Global holds the few operations that span all owners: the slug namespace
// and public redirects. It is a separate type from Repository so unscoped
// access never hides behind a scoped value.
type Global struct {
	exec       sqlclient.Executor
	readPolicy retry.Policy
	now        func() time.Time
}

func NewGlobal(exec sqlclient.Executor) *Global {
	return &Global{exec: exec, readPolicy: defaultReadPolicy, now: time.Now}
}

// SlugExists reports whether slug is taken by any owner. The comparison is
// case-insensitive so "Promo" and "promo" can never both exist.
func (g *Global) SlugExists(ctx context.Context, slug string) (bool, error) {
	return slugTaken(ctx, g.exec, g.readPolicy, slug)
}

func slugTaken(ctx context.Context, exec sqlclient.Executor, p retry.Policy, slug string) (bool, error) {
	rows, err := readWith(ctx, exec, p, `SELECT 1 AS found FROM links WHERE lower(slug) = lower(?) LIMIT 1`, slug)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// ResolveSlug looks a slug up for redirection. Expired links resolve to
// ErrLinkNotFound.
func (g *Global) ResolveSlug(ctx context.Context, slug string) (*model.Link, error) {
	rows, err := readWith(ctx, g.exec, g.readPolicy, `SELECT `+linkColumns+` FROM links WHERE slug = ?`, slug)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrLinkNotFound
	}
	link := scanLink(rows[0])
	if link.Expired(g.now()) {
		return nil, ErrLinkNotFound
	}
	return link, nil
}

func (g *Global) IncrementClicks(ctx context.Context, id int64) error {
	_, err := g.exec.Query(ctx, `UPDATE links SET clicks = clicks + 1 WHERE id = ?`, id)
	return err
}
