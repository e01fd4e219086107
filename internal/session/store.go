// Package session はログインセッションの保存と検証を提供する。
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound はキーに対応する値が存在しないことを表す。
var ErrNotFound = errors.New("session not found in store")

// Store はセッションの保存先のインターフェース。
type Store interface {
	// Get はキーに対応する値を取得する。存在しない場合はErrNotFoundを返す。
	Get(ctx context.Context, key string) ([]byte, error)
	// Set は値をttlの有効期限付きで保存する。
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete はキーを削除する。存在しない場合もエラーにしない。
	Delete(ctx context.Context, key string) error
}

// DefaultKeyPrefix はRedisのキーの接頭辞。
const DefaultKeyPrefix = "careerconsult:session"

// RedisStore はRedisを使用したセッションストア。
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore はRedisStoreを生成する。
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + ":" + k
}

// Get はキーに対応する値を取得する。
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return data, nil
}

// Set は値をttlの有効期限付きで保存する。
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}
	return nil
}

// Delete はキーを削除する。
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// PingContext はRedisへの疎通を確認する。
func (s *RedisStore) PingContext(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
