package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Auth    AuthConfig
	Storage StorageConfig
	S3      S3Config
	Local   LocalConfig
	Archive ArchiveConfig
	Upload  UploadConfig
	Log     LogConfig
	CORS    CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Environment     string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// AuthConfig holds the settings used to verify bearer tokens issued by the
// identity service.
type AuthConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// Storage providers.
const (
	StorageProviderS3    = "s3"
	StorageProviderLocal = "local"
)

// StorageConfig selects the object storage provider and holds settings shared
// by all providers.
type StorageConfig struct {
	Provider         string `mapstructure:"provider"`
	SignedURLTTLSecs int    `mapstructure:"signed_url_ttl_secs"`
	PublicBaseURL    string `mapstructure:"public_base_url"`
}

// SignedURLTTL returns the signed URL lifetime as a duration.
func (s *StorageConfig) SignedURLTTL() time.Duration {
	return time.Duration(s.SignedURLTTLSecs) * time.Second
}

// S3Config holds S3-compatible object store settings.
type S3Config struct {
	Region       string `mapstructure:"region"`
	Bucket       string `mapstructure:"bucket"`
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

// LocalConfig holds settings for the filesystem storage provider.
type LocalConfig struct {
	Root          string `mapstructure:"root"`
	BaseURL       string `mapstructure:"base_url"`
	SigningSecret string `mapstructure:"signing_secret"`
}

// ArchiveConfig holds bulk download settings.
type ArchiveConfig struct {
	Workers          int `mapstructure:"workers"`
	FetchTimeoutSecs int `mapstructure:"fetch_timeout_secs"`
	CompressionLevel int `mapstructure:"compression_level"`
}

// FetchTimeout returns the per-object fetch timeout as a duration.
func (a *ArchiveConfig) FetchTimeout() time.Duration {
	return time.Duration(a.FetchTimeoutSecs) * time.Second
}

// UploadConfig holds per asset kind size ceilings and the caller-side retry bound.
type UploadConfig struct {
	GuestPhotoMaxMB int64 `mapstructure:"guest_photo_max_mb"`
	LogoMaxKB       int64 `mapstructure:"logo_max_kb"`
	FaviconMaxKB    int64 `mapstructure:"favicon_max_kb"`
	CoverMaxMB      int64 `mapstructure:"cover_max_mb"`
	RetryAttempts   int   `mapstructure:"retry_attempts"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Provider {
	case StorageProviderS3:
		if strings.TrimSpace(c.S3.Bucket) == "" {
			errs = append(errs, errors.New("s3.bucket is required for the s3 storage provider"))
		}
	case StorageProviderLocal:
		if strings.TrimSpace(c.Local.Root) == "" {
			errs = append(errs, errors.New("local.root is required for the local storage provider"))
		}
		if c.Local.SigningSecret == "" {
			errs = append(errs, errors.New("local.signing_secret is required for the local storage provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage provider %q", c.Storage.Provider))
	}
	if c.Storage.SignedURLTTLSecs < 1 {
		errs = append(errs, errors.New("storage.signed_url_ttl_secs must be at least 1"))
	}
	if c.Archive.Workers < 1 {
		errs = append(errs, errors.New("archive.workers must be at least 1"))
	}
	if c.Archive.FetchTimeoutSecs < 1 {
		errs = append(errs, errors.New("archive.fetch_timeout_secs must be at least 1"))
	}
	if c.Archive.CompressionLevel < 0 || c.Archive.CompressionLevel > 9 {
		errs = append(errs, errors.New("archive.compression_level must be between 0 and 9"))
	}
	if c.Upload.RetryAttempts < 1 {
		errs = append(errs, errors.New("upload.retry_attempts must be at least 1"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables with the EVENTDROP_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EVENTDROP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.shutdown_timeout", "20s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "eventdrop")
	v.SetDefault("db.password", "eventdrop_secret")
	v.SetDefault("db.name", "eventdrop_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Auth defaults
	v.SetDefault("auth.secret", "change-me-in-production")
	v.SetDefault("auth.issuer", "eventdrop")

	// Storage defaults
	v.SetDefault("storage.provider", StorageProviderS3)
	v.SetDefault("storage.signed_url_ttl_secs", 900)
	v.SetDefault("storage.public_base_url", "")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "eventdrop-media")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.use_path_style", false)

	// Local storage defaults
	v.SetDefault("local.root", "./data/objects")
	v.SetDefault("local.base_url", "http://localhost:8080")
	v.SetDefault("local.signing_secret", "")

	// Archive defaults
	v.SetDefault("archive.workers", 8)
	v.SetDefault("archive.fetch_timeout_secs", 30)
	v.SetDefault("archive.compression_level", 5)

	// Upload defaults
	v.SetDefault("upload.guest_photo_max_mb", 10)
	v.SetDefault("upload.logo_max_kb", 2048)
	v.SetDefault("upload.favicon_max_kb", 512)
	v.SetDefault("upload.cover_max_mb", 5)
	v.SetDefault("upload.retry_attempts", 3)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                 "EVENTDROP_SERVER_PORT",
		"server.read_timeout":         "EVENTDROP_SERVER_READ_TIMEOUT",
		"server.write_timeout":        "EVENTDROP_SERVER_WRITE_TIMEOUT",
		"server.shutdown_timeout":     "EVENTDROP_SERVER_SHUTDOWN_TIMEOUT",
		"server.environment":          "EVENTDROP_SERVER_ENVIRONMENT",
		"db.host":                     "EVENTDROP_DB_HOST",
		"db.port":                     "EVENTDROP_DB_PORT",
		"db.user":                     "EVENTDROP_DB_USER",
		"db.password":                 "EVENTDROP_DB_PASSWORD",
		"db.name":                     "EVENTDROP_DB_NAME",
		"db.sslmode":                  "EVENTDROP_DB_SSLMODE",
		"db.max_open":                 "EVENTDROP_DB_MAX_OPEN",
		"db.max_idle":                 "EVENTDROP_DB_MAX_IDLE",
		"auth.secret":                 "EVENTDROP_AUTH_SECRET",
		"auth.issuer":                 "EVENTDROP_AUTH_ISSUER",
		"storage.provider":            "EVENTDROP_STORAGE_PROVIDER",
		"storage.signed_url_ttl_secs": "EVENTDROP_STORAGE_SIGNED_URL_TTL_SECS",
		"storage.public_base_url":     "EVENTDROP_STORAGE_PUBLIC_BASE_URL",
		"s3.region":                   "EVENTDROP_S3_REGION",
		"s3.bucket":                   "EVENTDROP_S3_BUCKET",
		"s3.endpoint":                 "EVENTDROP_S3_ENDPOINT",
		"s3.access_key":               "EVENTDROP_S3_ACCESS_KEY",
		"s3.secret_key":               "EVENTDROP_S3_SECRET_KEY",
		"s3.use_path_style":           "EVENTDROP_S3_USE_PATH_STYLE",
		"local.root":                  "EVENTDROP_LOCAL_ROOT",
		"local.base_url":              "EVENTDROP_LOCAL_BASE_URL",
		"local.signing_secret":        "EVENTDROP_LOCAL_SIGNING_SECRET",
		"archive.workers":             "EVENTDROP_ARCHIVE_WORKERS",
		"archive.fetch_timeout_secs":  "EVENTDROP_ARCHIVE_FETCH_TIMEOUT_SECS",
		"archive.compression_level":   "EVENTDROP_ARCHIVE_COMPRESSION_LEVEL",
		"upload.guest_photo_max_mb":   "EVENTDROP_UPLOAD_GUEST_PHOTO_MAX_MB",
		"upload.logo_max_kb":          "EVENTDROP_UPLOAD_LOGO_MAX_KB",
		"upload.favicon_max_kb":       "EVENTDROP_UPLOAD_FAVICON_MAX_KB",
		"upload.cover_max_mb":         "EVENTDROP_UPLOAD_COVER_MAX_MB",
		"upload.retry_attempts":       "EVENTDROP_UPLOAD_RETRY_ATTEMPTS",
		"log.level":                   "EVENTDROP_LOG_LEVEL",
		"log.format":                  "EVENTDROP_LOG_FORMAT",
		"cors.allowed_origins":        "EVENTDROP_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if EVENTDROP_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("EVENTDROP_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:            serverPort,
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		Environment:     v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Auth = AuthConfig{
		Secret: v.GetString("auth.secret"),
		Issuer: v.GetString("auth.issuer"),
	}
	cfg.Storage = StorageConfig{
		Provider:         strings.ToLower(strings.TrimSpace(v.GetString("storage.provider"))),
		SignedURLTTLSecs: v.GetInt("storage.signed_url_ttl_secs"),
		PublicBaseURL:    strings.TrimSpace(v.GetString("storage.public_base_url")),
	}
	cfg.S3 = S3Config{
		Region:       v.GetString("s3.region"),
		Bucket:       v.GetString("s3.bucket"),
		Endpoint:     v.GetString("s3.endpoint"),
		AccessKey:    v.GetString("s3.access_key"),
		SecretKey:    v.GetString("s3.secret_key"),
		UsePathStyle: v.GetBool("s3.use_path_style"),
	}
	cfg.Local = LocalConfig{
		Root:          v.GetString("local.root"),
		BaseURL:       strings.TrimSuffix(v.GetString("local.base_url"), "/"),
		SigningSecret: v.GetString("local.signing_secret"),
	}
	cfg.Archive = ArchiveConfig{
		Workers:          v.GetInt("archive.workers"),
		FetchTimeoutSecs: v.GetInt("archive.fetch_timeout_secs"),
		CompressionLevel: v.GetInt("archive.compression_level"),
	}
	cfg.Upload = UploadConfig{
		GuestPhotoMaxMB: v.GetInt64("upload.guest_photo_max_mb"),
		LogoMaxKB:       v.GetInt64("upload.logo_max_kb"),
		FaviconMaxKB:    v.GetInt64("upload.favicon_max_kb"),
		CoverMaxMB:      v.GetInt64("upload.cover_max_mb"),
		RetryAttempts:   v.GetInt("upload.retry_attempts"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
