package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

var defaultConfigPaths = []string{"config.yaml", "config.yml"}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			AllowedOrigins:  []string{},
			ShutdownTimeout: 15 * time.Second,
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Mongo: MongoConfig{
			Database:     "moviecatalog",
			Transactions: true,
			Timeout:      10 * time.Second,
			MaxPoolSize:  100,
		},
		Auth: AuthConfig{
			AccessTTL:    50 * time.Minute,
			RefreshTTL:   7 * 24 * time.Hour,
			CookieSecure: true,
			BcryptCost:   10,
		},
		Storage: StorageConfig{
			Provider:          "none",
			Region:            "auto",
			MaxUploadMB:       5,
			AllowedExtensions: []string{".jpg", ".jpeg", ".png", ".webp"},
			AllowedMimeTypes:  []string{"image/jpeg", "image/png", "image/webp"},
			Timeout:           30 * time.Second,
		},
		Redis: RedisConfig{
			Addr: "",
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			Prefix:         "rl:auth",
			Capacity:       10,
			RefillTokens:   1,
			RefillInterval: 6 * time.Second,
			TTL:            10 * time.Minute,
		},
		AMQP: AMQPConfig{
			Queue: "moviecatalog.events",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Seed: SeedConfig{
			DemoPassword: "password",
		},
	}
}

// Load builds the configuration. Precedence is env > config file > defaults.
// A .env file in the working directory is read into the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.allowed_origins",
	"storage.allowed_extensions",
	"storage.allowed_mime_types",
}

// splitSliceFields turns comma separated env values into string slices.
func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := make([]string, 0)
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, strings.ToLower(p))
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings keeps the variable names the service has always read.
var envMappings = map[string]string{
	"port":                     "server.port",
	"allowed_origins":          "server.allowed_origins",
	"shutdown_timeout":         "server.shutdown_timeout",
	"default_read_query_limit": "server.default_page_size",
	"read_query_max_limit":     "server.max_page_size",

	"mongodb_uri":         "mongo.uri",
	"database_name":       "mongo.database",
	"mongo_transactions":  "mongo.transactions",
	"mongo_timeout":       "mongo.timeout",
	"mongo_max_pool_size": "mongo.max_pool_size",

	"jwt_secret":         "auth.access_secret",
	"jwt_refresh_secret": "auth.refresh_secret",
	"access_token_ttl":   "auth.access_ttl",
	"refresh_token_ttl":  "auth.refresh_ttl",
	"cookie_secure":      "auth.cookie_secure",
	"cookie_domain":      "auth.cookie_domain",
	"bcrypt_cost":        "auth.bcrypt_cost",

	"storage_provider":          "storage.provider",
	"storage_bucket":            "storage.bucket",
	"gcs_bucket":                "storage.bucket",
	"credentials_file_location": "storage.credentials_file",
	"r2_bucket":                 "storage.bucket",
	"r2_endpoint":               "storage.endpoint",
	"r2_access_key_id":          "storage.access_key_id",
	"r2_secret_access_key":      "storage.secret_access_key",
	"r2_public_domain":          "storage.public_domain",
	"storage_region":            "storage.region",
	"max_upload_size_mb":        "storage.max_upload_mb",
	"allowed_file_extensions":   "storage.allowed_extensions",
	"allowed_file_mime_types":   "storage.allowed_mime_types",
	"storage_timeout":           "storage.timeout",

	"redis_addr":     "redis.addr",
	"redis_password": "redis.password",
	"redis_db":       "redis.db",

	"rate_limit_enabled":         "ratelimit.enabled",
	"rate_limit_prefix":          "ratelimit.prefix",
	"rate_limit_capacity":        "ratelimit.capacity",
	"rate_limit_refill_tokens":   "ratelimit.refill_tokens",
	"rate_limit_refill_interval": "ratelimit.refill_interval",
	"rate_limit_ttl":             "ratelimit.ttl",

	"amqp_url":     "amqp.url",
	"rabbitmq_url": "amqp.url",
	"amqp_queue":   "amqp.queue",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"seed_demo_data":     "seed.demo_data",
	"seed_demo_password": "seed.demo_password",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unknown variables return "" and are ignored.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
