package ctxkeys

import (
	"context"

	"github.com/templui/linkstash/internal/config"
	"github.com/templui/linkstash/internal/repository"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	ScopeKey  contextKey = "scope"
	ConfigKey contextKey = "config"
)

// Scope returns the authenticated owner's scope. ok is false for anonymous requests.
func Scope(ctx context.Context) (repository.Scope, bool) {
	scope, ok := ctx.Value(ScopeKey).(repository.Scope)
	if !ok || scope.IsZero() {
		return repository.Scope{}, false
	}
	return scope, true
}

func WithScope(ctx context.Context, scope repository.Scope) context.Context {
	return context.WithValue(ctx, ScopeKey, scope)
}

func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(ConfigKey).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}
