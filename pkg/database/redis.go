package database

import (
	"context"
	"fmt"

	"task-manager/configs"

	"github.com/go-redis/redis/v8"
)

// ConnectRedis mengembalikan nil jika REDIS_HOST kosong; cache akan dimatikan.
func ConnectRedis(ctx context.Context, cfg configs.Config) (*redis.Client, error) {
	if cfg.RedisHost == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
