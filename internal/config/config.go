package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/templui/linkstash/internal/sqlclient"
	"github.com/templui/linkstash/internal/storage"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Store driver: "d1" (remote HTTP), "sqlite" or "pgx" (local, via sqlx)
	StoreDriver  string
	DBConnection string

	// D1 remote store (STORE_DRIVER=d1)
	D1AccountID  string
	D1DatabaseID string
	D1APIToken   string
	D1BaseURL    string
	D1Timeout    time.Duration

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: Cloudflare R2, AWS S3, MinIO, etc.)
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3Endpoint     string // Optional: for non-AWS providers
	S3PublicDomain string // Public base URL stored objects are served from
	S3EnsureBucket bool   // Create the bucket at startup when missing (local MinIO)

	// Redirects
	RedirectCacheSize int
	RedirectCacheTTL  time.Duration
	RedirectRateLimit int // Requests per minute per client IP, 0 disables
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Linkstash"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:  envString("APP_URL", "http://localhost:8090"),
		Port:    envString("PORT", "8090"),

		// Store
		StoreDriver:  envString("STORE_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/linkstash.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		D1AccountID:  envString("D1_ACCOUNT_ID", ""),
		D1DatabaseID: envString("D1_DATABASE_ID", ""),
		D1APIToken:   envString("D1_API_TOKEN", ""),
		D1BaseURL:    envString("D1_BASE_URL", ""),
		D1Timeout:    envDuration("D1_TIMEOUT", sqlclient.DefaultTimeout),

		// Security
		JWTSecret: envRequired("JWT_SECRET"),
		JWTExpiry: envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		S3Region:       envString("S3_REGION", "auto"),
		S3Bucket:       envString("S3_BUCKET", ""),
		S3AccessKey:    envString("S3_ACCESS_KEY", ""),
		S3SecretKey:    envString("S3_SECRET_KEY", ""),
		S3Endpoint:     envString("S3_ENDPOINT", ""),
		S3PublicDomain: envString("S3_PUBLIC_DOMAIN", ""),
		S3EnsureBucket: envBool("S3_ENSURE_BUCKET", false),

		// Redirects
		RedirectCacheSize: envInt("REDIRECT_CACHE_SIZE", 10000),
		RedirectCacheTTL:  envDuration("REDIRECT_CACHE_TTL", 5*time.Minute),
		RedirectRateLimit: envInt("REDIRECT_RATE_LIMIT", 120),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures production never serves the reconciler a store
// it cannot map URLs back from.
func validateProduction(cfg *Config) {
	if cfg.S3PublicDomain == "" {
		slog.Error("production deployment requires S3_PUBLIC_DOMAIN",
			"hint", "screenshot URLs are matched against it during storage scans")
		os.Exit(1)
	}
}

// D1 returns the remote SQL client settings. sqlclient.New validates them.
func (c *Config) D1() sqlclient.Config {
	return sqlclient.Config{
		AccountID:  c.D1AccountID,
		DatabaseID: c.D1DatabaseID,
		APIToken:   c.D1APIToken,
		BaseURL:    c.D1BaseURL,
		Timeout:    c.D1Timeout,
	}
}

// S3 returns the object store settings. storage.NewS3Storage validates them.
func (c *Config) S3() storage.S3Config {
	return storage.S3Config{
		Region:       c.S3Region,
		Bucket:       c.S3Bucket,
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
		Endpoint:     c.S3Endpoint,
		PublicDomain: c.S3PublicDomain,
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets, credentials, and sensitive data are excluded.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:        c.AppName,
		AppEnv:         c.AppEnv,
		AppURL:         c.AppURL,
		Port:           c.Port,
		StoreDriver:    c.StoreDriver,
		S3PublicDomain: c.S3PublicDomain,
	}
}
