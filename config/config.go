// Package config loads the service configuration from defaults, an optional
// YAML file and the process environment (a .env file is honoured).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Mongo     MongoConfig     `koanf:"mongo"`
	Auth      AuthConfig      `koanf:"auth"`
	Storage   StorageConfig   `koanf:"storage"`
	Redis     RedisConfig     `koanf:"redis"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	AMQP      AMQPConfig      `koanf:"amqp"`
	Logging   LoggingConfig   `koanf:"logging"`
	Seed      SeedConfig      `koanf:"seed"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	DefaultPageSize int           `koanf:"default_page_size"`
	MaxPageSize     int           `koanf:"max_page_size"`
}

type MongoConfig struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
	// Transactions wraps cast reconciliation in a multi-document transaction.
	// Requires a replica set; turn off for a standalone mongod.
	Transactions bool          `koanf:"transactions"`
	Timeout      time.Duration `koanf:"timeout"`
	MaxPoolSize  uint64        `koanf:"max_pool_size"`
}

type AuthConfig struct {
	AccessSecret  string        `koanf:"access_secret"`
	RefreshSecret string        `koanf:"refresh_secret"`
	AccessTTL     time.Duration `koanf:"access_ttl"`
	RefreshTTL    time.Duration `koanf:"refresh_ttl"`
	CookieSecure  bool          `koanf:"cookie_secure"`
	CookieDomain  string        `koanf:"cookie_domain"`
	BcryptCost    int           `koanf:"bcrypt_cost"`
}

// StorageConfig selects the object store used by POST /uploads.
// Provider is one of "gcs", "s3" (any S3 compatible endpoint such as R2) or "none".
type StorageConfig struct {
	Provider          string        `koanf:"provider"`
	Bucket            string        `koanf:"bucket"`
	CredentialsFile   string        `koanf:"credentials_file"`
	Endpoint          string        `koanf:"endpoint"`
	Region            string        `koanf:"region"`
	AccessKeyID       string        `koanf:"access_key_id"`
	SecretAccessKey   string        `koanf:"secret_access_key"`
	PublicDomain      string        `koanf:"public_domain"`
	MaxUploadMB       int           `koanf:"max_upload_mb"`
	AllowedExtensions []string      `koanf:"allowed_extensions"`
	AllowedMimeTypes  []string      `koanf:"allowed_mime_types"`
	Timeout           time.Duration `koanf:"timeout"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type RateLimitConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Prefix         string        `koanf:"prefix"`
	Capacity       int           `koanf:"capacity"`
	RefillTokens   int           `koanf:"refill_tokens"`
	RefillInterval time.Duration `koanf:"refill_interval"`
	TTL            time.Duration `koanf:"ttl"`
}

type AMQPConfig struct {
	URL   string `koanf:"url"`
	Queue string `koanf:"queue"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

type SeedConfig struct {
	DemoData     bool   `koanf:"demo_data"`
	DemoPassword string `koanf:"demo_password"`
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Mongo.URI) == "" {
		errs = append(errs, errors.New("mongo.uri (MONGODB_URI) is required"))
	}
	if strings.TrimSpace(c.Mongo.Database) == "" {
		errs = append(errs, errors.New("mongo.database (DATABASE_NAME) is required"))
	}
	if c.Auth.AccessSecret == "" {
		errs = append(errs, errors.New("auth.access_secret (JWT_SECRET) is required"))
	}
	if c.Auth.RefreshSecret == "" {
		errs = append(errs, errors.New("auth.refresh_secret (JWT_REFRESH_SECRET) is required"))
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		errs = append(errs, errors.New("auth token ttls must be positive"))
	}
	switch c.Storage.Provider {
	case "none", "":
	case "gcs":
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("storage.bucket is required for gcs"))
		}
	case "s3":
		if c.Storage.Bucket == "" || c.Storage.AccessKeyID == "" || c.Storage.SecretAccessKey == "" {
			errs = append(errs, errors.New("storage.bucket, storage.access_key_id and storage.secret_access_key are required for s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.provider %q", c.Storage.Provider))
	}
	if c.Seed.DemoData && strings.TrimSpace(c.Seed.DemoPassword) == "" {
		errs = append(errs, errors.New("seed.demo_password (SEED_DEMO_PASSWORD) is required when seed.demo_data is on"))
	}
	if c.Server.MaxPageSize < c.Server.DefaultPageSize {
		errs = append(errs, errors.New("server.max_page_size must be >= server.default_page_size"))
	}
	return errors.Join(errs...)
}

// MaxUploadBytes is the upload size ceiling derived from MaxUploadMB.
func (s StorageConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}
