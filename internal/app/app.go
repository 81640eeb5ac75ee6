package app

import (
	"context"
	"fmt"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/config"
	"github.com/templui/linkstash/internal/db"
	"github.com/templui/linkstash/internal/logger"
	"github.com/templui/linkstash/internal/repository"
	"github.com/templui/linkstash/internal/service"
	"github.com/templui/linkstash/internal/slug"
	"github.com/templui/linkstash/internal/sqlclient"
	"github.com/templui/linkstash/internal/storage"
)

type App struct {
	Cfg             *config.Config
	Store           *sqlclient.Handle
	Objects         storage.ObjectStore
	AuthService     *service.AuthService
	LinkService     *service.LinkService
	UploadService   *service.UploadService
	StorageService  *service.StorageService
	BackupService   *service.BackupService
	RedirectService *service.RedirectService
	Allocator       *slug.Allocator
}

// New opens the SQL and object stores and wires the services. Local drivers
// are migrated on open; the remote store is migrated with linkctl.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := OpenStore(cfg, true)
	if err != nil {
		return nil, err
	}

	// Storage
	objects, err := storage.NewS3Storage(ctx, cfg.S3())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if cfg.S3EnsureBucket {
		if err := objects.EnsureBucket(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to ensure bucket: %w", err)
		}
	}

	return newApp(cfg, store, objects), nil
}

func newApp(cfg *config.Config, store *sqlclient.Handle, objects storage.ObjectStore) *App {
	global := repository.NewGlobal(store)
	allocator := slug.NewAllocator(global)
	redirects := service.NewRedirectService(global, cfg.RedirectCacheSize, cfg.RedirectCacheTTL)

	return &App{
		Cfg:             cfg,
		Store:           store,
		Objects:         objects,
		AuthService:     service.NewAuthService(cfg.JWTSecret, cfg.JWTExpiry),
		LinkService:     service.NewLinkService(store, allocator, redirects),
		UploadService:   service.NewUploadService(store, objects),
		StorageService:  service.NewStorageService(store, objects),
		BackupService:   service.NewBackupService(store),
		RedirectService: redirects,
		Allocator:       allocator,
	}
}

// OpenStore returns a resettable handle on the configured SQL store.
func OpenStore(cfg *config.Config, migrate bool) (*sqlclient.Handle, error) {
	store, err := sqlclient.NewHandle(Opener(cfg, migrate))
	if err != nil {
		return nil, fmt.Errorf("failed to open sql store: %w", err)
	}
	return store, nil
}

// Opener builds executors for cfg.StoreDriver.
func Opener(cfg *config.Config, migrate bool) sqlclient.Opener {
	return func() (sqlclient.Executor, error) {
		switch cfg.StoreDriver {
		case "d1":
			client, err := sqlclient.New(cfg.D1(), sqlclient.WithLogger(logger.For("sqlclient")))
			if err != nil {
				return nil, err
			}
			return client, nil
		case "sqlite", "pgx":
			database, err := db.Init(cfg.StoreDriver, cfg.DBConnection)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize database: %w", err)
			}
			if migrate {
				if err := db.RunMigrations(database.DB, cfg.StoreDriver); err != nil {
					_ = database.Close()
					return nil, fmt.Errorf("failed to run migrations: %w", err)
				}
			}
			return sqlclient.NewLocal(database, 0), nil
		default:
			return nil, apperr.Configuration(fmt.Sprintf("unknown STORE_DRIVER %q", cfg.StoreDriver))
		}
	}
}

// ResetStore swaps in a freshly opened SQL executor.
func (a *App) ResetStore() error {
	return a.Store.Reset()
}

func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
