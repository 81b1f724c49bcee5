/*
Package cache memoizes quotes in Redis.

PURPOSE:
  A quote is a pure function of (tariff snapshot, normalized selection), so
  a computed quote can be reused by anyone asking the same question against
  the same snapshot. Keys carry the tariff version; installing a new tariff
  makes every older entry unreachable, and PurgeExcept drops them eagerly.

KEY FORMAT:
  quote:<tariff version>:<sha256 of the canonical selection JSON>

FAILURE MODE:
  The cache is an optimization. Quote falls back to calculating on any
  Redis error; only Get reports ErrCacheMiss and transport errors.

SEE ALSO:
  - pricing/quote.go: Calculate
  - api/handlers.go: quote endpoints
*/
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/petguardian/quote-engine/config"
	"github.com/petguardian/quote-engine/generic"
	"github.com/petguardian/quote-engine/logger"
	"github.com/petguardian/quote-engine/pricing"
)

const keyPrefix = "quote"

// QuoteCache stores quotes as JSON under version-scoped keys.
type QuoteCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// Connect opens a client for cfg and pings the server.
func Connect(cfg *config.RedisConfig, log *logger.Logger) (*QuoteCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.WithField("addr", cfg.Addr).Info("Connected to quote cache")
	return New(rdb, cfg.TTL, log), nil
}

// New wraps an existing client.
func New(client *redis.Client, ttl time.Duration, log *logger.Logger) *QuoteCache {
	return &QuoteCache{client: client, ttl: ttl, log: log}
}

// Close closes the underlying client. Safe on a nil cache.
func (c *QuoteCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Health pings the server.
func (c *QuoteCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// =============================================================================
// KEYS
// =============================================================================

// GenerateKey joins a prefix and an id.
func GenerateKey(prefix, id string) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}

// Key is the cache key of sel priced against the given tariff version. The
// selection is normalized first, so equivalent form states share a key.
func Key(version string, sel pricing.BookingSelection) (string, error) {
	canonical, err := json.Marshal(sel.Normalized())
	if err != nil {
		return "", fmt.Errorf("failed to encode selection: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return GenerateKey(versionPrefix(version), hex.EncodeToString(sum[:])), nil
}

func versionPrefix(version string) string {
	return GenerateKey(keyPrefix, version)
}

// =============================================================================
// READ / WRITE
// =============================================================================

// Get loads a cached quote. A missing key yields generic.ErrCacheMiss.
func (c *QuoteCache) Get(ctx context.Context, key string) (pricing.Quote, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return pricing.Quote{}, generic.ErrCacheMiss
		}
		return pricing.Quote{}, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	var q pricing.Quote
	if err := json.Unmarshal([]byte(val), &q); err != nil {
		return pricing.Quote{}, fmt.Errorf("failed to unmarshal value for key %s: %w", key, err)
	}

	c.log.WithField("key", key).Debug("Quote served from cache")
	return q, nil
}

// Set stores a quote with the configured TTL.
func (c *QuoteCache) Set(ctx context.Context, key string, q pricing.Quote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Quote returns the cached quote for (t, sel), calculating and storing it on
// a miss. The bool reports a cache hit. Redis failures are logged and the
// quote is calculated directly.
func (c *QuoteCache) Quote(ctx context.Context, t pricing.Tariff, sel pricing.BookingSelection) (pricing.Quote, bool) {
	key, err := Key(t.Version(), sel)
	if err != nil {
		c.log.WithError(err).Warn("Quote cache key failed")
		return pricing.Calculate(t, sel), false
	}

	q, err := c.Get(ctx, key)
	if err == nil {
		return q, true
	}
	if !errors.Is(err, generic.ErrCacheMiss) {
		c.log.WithError(err).Warn("Quote cache read failed")
	}

	q = pricing.Calculate(t, sel)
	if err := c.Set(ctx, key, q); err != nil {
		c.log.WithError(err).Warn("Quote cache write failed")
	}
	return q, false
}

// PurgeExcept deletes every cached quote that does not belong to the given
// tariff version and returns how many keys went.
func (c *QuoteCache) PurgeExcept(ctx context.Context, version string) (int, error) {
	keep := versionPrefix(version) + ":"
	var stale []string

	iter := c.client.Scan(ctx, 0, keyPrefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		if !strings.HasPrefix(iter.Val(), keep) {
			stale = append(stale, iter.Val())
		}
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan quote keys: %w", err)
	}

	if len(stale) == 0 {
		return 0, nil
	}
	if err := c.client.Del(ctx, stale...).Err(); err != nil {
		return 0, fmt.Errorf("failed to delete stale quotes: %w", err)
	}

	c.log.WithFields(map[string]interface{}{
		"version": version,
		"purged":  len(stale),
	}).Debug("Stale quotes purged")
	return len(stale), nil
}
