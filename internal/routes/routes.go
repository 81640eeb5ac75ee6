package routes

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/templui/linkstash/internal/app"
	"github.com/templui/linkstash/internal/handler"
	"github.com/templui/linkstash/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	links := handler.NewLinkHandler(app.LinkService)
	uploads := handler.NewUploadHandler(app.UploadService)
	storage := handler.NewStorageHandler(app.StorageService)
	backup := handler.NewBackupHandler(app.BackupService)
	redirect := handler.NewRedirectHandler(app.RedirectService)
	health := handler.NewHealthHandler(app.Store)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Short links (rate limited per client IP)
	rateLimiter := middleware.RateLimit(app.Cfg.RedirectRateLimit, time.Minute)
	mux.Handle("GET /{slug}", rateLimiter(http.HandlerFunc(redirect.Redirect)))

	// ============================================================================
	// PROTECTED ROUTES (/api/*)
	// ============================================================================

	// Links
	mux.HandleFunc("GET /api/links", middleware.RequireAuth(links.List))
	mux.HandleFunc("POST /api/links", middleware.RequireAuth(links.Create))
	mux.HandleFunc("POST /api/links/bulk", middleware.RequireAuth(links.Bulk))
	mux.HandleFunc("GET /api/links/{id}", middleware.RequireAuth(links.Get))
	mux.HandleFunc("PATCH /api/links/{id}", middleware.RequireAuth(links.Update))
	mux.HandleFunc("PUT /api/links/{id}/slug", middleware.RequireAuth(links.Rename))
	mux.HandleFunc("PUT /api/links/{id}/tags", middleware.RequireAuth(links.SetTags))
	mux.HandleFunc("POST /api/links/{id}/screenshot", middleware.RequireAuth(uploads.Screenshot))
	mux.HandleFunc("DELETE /api/links/{id}", middleware.RequireAuth(links.Delete))

	// Folders
	mux.HandleFunc("GET /api/folders", middleware.RequireAuth(links.Folders))
	mux.HandleFunc("POST /api/folders", middleware.RequireAuth(links.CreateFolder))
	mux.HandleFunc("PATCH /api/folders/{id}", middleware.RequireAuth(links.RenameFolder))
	mux.HandleFunc("DELETE /api/folders/{id}", middleware.RequireAuth(links.DeleteFolder))

	// Tags
	mux.HandleFunc("GET /api/tags", middleware.RequireAuth(links.Tags))
	mux.HandleFunc("POST /api/tags", middleware.RequireAuth(links.CreateTag))
	mux.HandleFunc("DELETE /api/tags/{id}", middleware.RequireAuth(links.DeleteTag))

	// Uploads
	mux.HandleFunc("GET /api/uploads", middleware.RequireAuth(uploads.List))
	mux.HandleFunc("POST /api/uploads", middleware.RequireAuth(uploads.Upload))
	mux.HandleFunc("GET /api/uploads/{id}", middleware.RequireAuth(uploads.Get))
	mux.HandleFunc("DELETE /api/uploads/{id}", middleware.RequireAuth(uploads.Delete))

	// Storage reconciliation
	mux.HandleFunc("GET /api/storage/scan", middleware.RequireAuth(storage.Scan))
	mux.HandleFunc("POST /api/storage/cleanup", middleware.RequireAuth(storage.Cleanup))

	// Backup
	mux.HandleFunc("GET /api/export", middleware.RequireAuth(backup.Export))
	mux.HandleFunc("POST /api/import", middleware.RequireAuth(backup.Import))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Auth(app.AuthService), // Before logging so requests are logged with their owner
		middleware.RequestLogging,
		middleware.Config(app.Cfg),
	)

	return handler
}
