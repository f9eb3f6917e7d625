package database

import (
	"context"
	"fmt"
	"toefl_sim_backend/internal/config"
	"toefl_sim_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// InitRedis connects the client used by the answer key cache and the redis session store.
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}

	logger.Log.Info("Redis connection established",
		zap.String("addr", addr),
		zap.Int("db", cfg.DB),
		zap.Int("poolSize", cfg.PoolSize),
	)
	return rdb, nil
}
