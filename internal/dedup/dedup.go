// Package dedup provides Redis-backed deduplication of Telegram update IDs so
// that webhook retries do not trigger double processing.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"autoshop_telegram_bot/internal/config"
	"autoshop_telegram_bot/internal/logging"
)

const (
	keyPrefix = "tg:update:"

	// DefaultTTL bounds how long an update ID is remembered. Telegram stops
	// retrying a webhook long before this expires.
	DefaultTTL = 24 * time.Hour
)

// redisClient captures the subset of redis.Client behavior the deduper relies
// on, allowing lightweight stubbing in tests.
type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// NewClient builds a redis client from the runtime configuration.
func NewClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

// Deduper marks update IDs as processed and reports repeats.
type Deduper struct {
	client redisClient
	ttl    time.Duration
	logger *logrus.Entry
}

// NewDeduper constructs a Deduper over the provided redis client.
func NewDeduper(client redisClient, logger *logrus.Entry) *Deduper {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Deduper{
		client: client,
		ttl:    DefaultTTL,
		logger: logger,
	}
}

// Seen atomically records the update ID and reports whether it was already
// processed. A Redis failure is reported as not-seen along with the error:
// availability wins over strict once-only delivery.
func (d *Deduper) Seen(ctx context.Context, updateID int64) (bool, error) {
	if d == nil || d.client == nil {
		return false, errors.New("deduper is not initialized")
	}
	if ctx == nil {
		return false, errors.New("context is required")
	}

	key := fmt.Sprintf("%s%d", keyPrefix, updateID)

	stored, err := d.client.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		d.logger.WithFields(logging.Fields{
			"event":     "dedup_error",
			"update_id": updateID,
		}).WithError(err).Warn("dedup check failed, treating update as new")
		return false, fmt.Errorf("dedup setnx: %w", err)
	}

	return !stored, nil
}

// Ping verifies Redis connectivity; used by the health endpoint.
func (d *Deduper) Ping(ctx context.Context) error {
	if d == nil || d.client == nil {
		return errors.New("deduper is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	if err := d.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	return nil
}
