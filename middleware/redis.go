package middleware

import (
	"context"
	"time"

	"github.com/princinho/moviecatalog/config"
	"github.com/princinho/moviecatalog/logging"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to redis for rate limiting. It returns nil when no
// address is configured or the server does not answer a ping; callers then
// fall back to in-process limiting.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logging.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis unavailable, using in-process rate limiting")
		_ = client.Close()
		return nil
	}
	logging.Info().Str("addr", cfg.Addr).Msg("connected to redis")
	return client
}
