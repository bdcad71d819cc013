package redis

import (
	"context"
	"fmt"
	"time"

	"icu-monitor/internal/config"

	"github.com/go-redis/redis/v8"
)

// connectTimeout 启动探测 Redis 的最长等待
const connectTimeout = 3 * time.Second

// Connect 创建客户端并 PING；不可用时关闭客户端并返回错误，
// 调用方据此退回内存 KV
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: connectTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s unavailable: %w", cfg.Addr, err)
	}
	return client, nil
}
