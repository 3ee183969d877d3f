package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/resume-hub/backend/internal/config"
)

var ErrNoSession = errors.New("会话不存在")

// Store 保存每个用户当前唯一的刷新令牌。
// Save 必须覆盖写入，保证单用户单会话。
type Store interface {
	Save(ctx context.Context, userID int64, refreshToken string) error
	Get(ctx context.Context, userID int64) (string, error)
	Delete(ctx context.Context, userID int64) error
}

// RedisStore 用 redis 的按键原子写入和 TTL 实现会话存储，
// 过期的会话由 redis 自动清理。
type RedisStore struct {
	client     *redis.Client
	expiration time.Duration
	timeout    time.Duration
}

func NewRedisStore(cfg *config.Config, client *redis.Client) *RedisStore {
	return &RedisStore{
		client:     client,
		expiration: time.Duration(cfg.RefreshToken.Expiration) * time.Second,
		timeout:    time.Duration(cfg.Redis.OperationTimeout) * time.Second,
	}
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("refresh_token_%d", userID)
}

func (s *RedisStore) Save(ctx context.Context, userID int64, refreshToken string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.client.Set(ctx, sessionKey(userID), refreshToken, s.expiration).Err()
}

func (s *RedisStore) Get(ctx context.Context, userID int64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	refreshToken, err := s.client.Get(ctx, sessionKey(userID)).Result()
	if err != nil {
		switch {
		case errors.Is(err, redis.Nil):
			return "", ErrNoSession
		default:
			return "", err
		}
	}

	return refreshToken, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.client.Del(ctx, sessionKey(userID)).Err()
}
