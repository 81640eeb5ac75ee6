package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/templui/linkstash/internal/logger"
	"github.com/templui/linkstash/internal/model"
	"github.com/templui/linkstash/internal/repository"
)

const (
	DefaultRedirectCacheSize = 10000
	DefaultRedirectCacheTTL  = 5 * time.Minute
)

var redirectLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "linkstash_redirect_lookups_total",
	Help: "Public slug lookups by cache result",
}, []string{"result"})

// SlugResolver is the unscoped lookup a redirect needs.
// *repository.Global satisfies it.
type SlugResolver interface {
	ResolveSlug(ctx context.Context, slug string) (*model.Link, error)
	IncrementClicks(ctx context.Context, id int64) error
}

// RedirectService resolves public slugs, keeping recent answers in an
// expiring LRU cache.
type RedirectService struct {
	resolver SlugResolver
	cache    *expirable.LRU[string, *model.Link]
	now      func() time.Time
	logger   *slog.Logger
}

func NewRedirectService(resolver SlugResolver, size int, ttl time.Duration) *RedirectService {
	if size <= 0 {
		size = DefaultRedirectCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultRedirectCacheTTL
	}
	return &RedirectService{
		resolver: resolver,
		cache:    expirable.NewLRU[string, *model.Link](size, nil, ttl),
		now:      time.Now,
		logger:   logger.For("redirect"),
	}
}

// Resolve returns the link behind slug and counts the click. Expired and
// unknown slugs fail with repository.ErrLinkNotFound.
func (s *RedirectService) Resolve(ctx context.Context, slug string) (*model.Link, error) {
	link, ok := s.cache.Get(slug)
	if ok {
		redirectLookups.WithLabelValues("hit").Inc()
	} else {
		redirectLookups.WithLabelValues("miss").Inc()
		var err error
		link, err = s.resolver.ResolveSlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		s.cache.Add(slug, link)
	}

	if link.Expired(s.now()) {
		s.cache.Remove(slug)
		return nil, repository.ErrLinkNotFound
	}

	// A lost click must not fail the redirect.
	if err := s.resolver.IncrementClicks(ctx, link.ID); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "failed to count click", "slug", slug, "error", err)
	}

	return link, nil
}

// Invalidate drops cached answers for slugs after their link changed.
func (s *RedirectService) Invalidate(slugs ...string) {
	for _, slug := range slugs {
		s.cache.Remove(slug)
	}
}
