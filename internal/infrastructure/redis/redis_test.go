package redis

import (
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/sportup/internal/config"
)

// setupTestRedis はテスト用Redisに接続する
// Redis未起動時はスキップする
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	client, err := NewClient(&config.RedisConfig{Host: "localhost", Port: "6379", DB: 15})
	if err != nil {
		t.Skip("Redis not available")
	}
	t.Cleanup(func() { client.Close() })
	return client
}
