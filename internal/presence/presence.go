// Package presence keeps a best-effort "last active" timestamp per user in
// Redis. Entries expire on their own; nothing depends on them for correctness.
package presence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Tracker struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// New connects to redisURL. An empty URL yields a tracker that records nothing.
func New(redisURL string, ttl time.Duration) (*Tracker, error) {
	t := &Tracker{ttl: ttl, now: time.Now}
	if redisURL == "" {
		return t, nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	t.rdb = redis.NewClient(opt)
	return t, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *Tracker {
	return &Tracker{rdb: rdb, ttl: ttl, now: time.Now}
}

func key(userID uuid.UUID) string {
	return "presence:" + userID.String() + ":last_active"
}

// Touch records that the user was active now.
func (t *Tracker) Touch(ctx context.Context, userID uuid.UUID) error {
	if t == nil || t.rdb == nil {
		return nil
	}
	return t.rdb.Set(ctx, key(userID), t.now().Unix(), t.ttl).Err()
}

// LastActive returns nil when the user has not been seen within the TTL.
func (t *Tracker) LastActive(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	if t == nil || t.rdb == nil {
		return nil, nil
	}
	val, err := t.rdb.Get(ctx, key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt presence value %q: %w", val, err)
	}
	ts := time.Unix(unix, 0).UTC()
	return &ts, nil
}

func (t *Tracker) Close() error {
	if t == nil || t.rdb == nil {
		return nil
	}
	return t.rdb.Close()
}
