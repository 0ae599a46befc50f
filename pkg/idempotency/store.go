package idempotency

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const Header = "Idempotency-Key"

// Key extracts the client-supplied idempotency key, empty when absent.
func Key(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}

// Store remembers completed placements so a retried request is acknowledged
// instead of placed twice. Keys are marked only after success, so a failed
// attempt stays retryable.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) RequestKey(userID, key string) string {
	return fmt.Sprintf("idem:place:%s:%s", userID, key)
}

func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Mark(ctx context.Context, key string) error {
	return s.rdb.SetNX(ctx, key, "1", s.ttl).Err()
}
