// README: Verification store backed by Redis strings and counters.
package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	codeKeyPrefix     = "verify:code:%s"
	rateKeyPrefix     = "verify:rate:%s"
	verifiedKeyPrefix = "verify:ok:%s"
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// IncrSends bumps the send counter for phone. The window starts at the first
// send and is not extended by later ones.
func (s *Store) IncrSends(ctx context.Context, phone string, window time.Duration) (int64, error) {
	key := fmt.Sprintf(rateKeyPrefix, phone)
	pipe := s.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("verification.Store.IncrSends: %w", err)
	}
	return incr.Val(), nil
}

func (s *Store) SaveCode(ctx context.Context, phone, code string, ttl time.Duration) error {
	return s.redis.Set(ctx, fmt.Sprintf(codeKeyPrefix, phone), code, ttl).Err()
}

// Code returns the pending code and whether one exists.
func (s *Store) Code(ctx context.Context, phone string) (string, bool, error) {
	val, err := s.redis.Get(ctx, fmt.Sprintf(codeKeyPrefix, phone)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("verification.Store.Code: %w", err)
	}
	return val, true, nil
}

// MarkVerified consumes the pending code and records the verified flag.
func (s *Store) MarkVerified(ctx context.Context, phone string, ttl time.Duration) error {
	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, fmt.Sprintf(codeKeyPrefix, phone))
	pipe.Set(ctx, fmt.Sprintf(verifiedKeyPrefix, phone), "1", ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) IsVerified(ctx context.Context, phone string) (bool, error) {
	n, err := s.redis.Exists(ctx, fmt.Sprintf(verifiedKeyPrefix, phone)).Result()
	if err != nil {
		return false, fmt.Errorf("verification.Store.IsVerified: %w", err)
	}
	return n == 1, nil
}
