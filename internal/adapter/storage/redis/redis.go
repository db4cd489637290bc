package redis

import (
	"context"
	"fmt"

	"ton-payment-gateway/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewClient dials Redis and pings it once before handing the client out.
// Redis only backs the dedup fast path here, so a dead instance should be
// caught at startup rather than surfacing as cache misses later.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	opts := &goredis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis at %s: %w", opts.Addr, err)
	}

	log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("Redis connection established")
	return client, nil
}
