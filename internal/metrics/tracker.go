// Package metrics tracks editorial-facing serve counters in Redis and
// exposes Prometheus collectors for HTTP request metrics.
package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/northpine/newsroom-api/internal/logger"
)

const hoursPerDay = 24

// Tracker counts feed and detail responses in Redis. A nil client turns
// every operation into a no-op so the API runs without Redis.
type Tracker struct {
	client redis.UniversalClient
	keys   *RedisKeys
	logger logger.Logger
}

// NewTracker creates a new serve-counter tracker
func NewTracker(client redis.UniversalClient, log logger.Logger) *Tracker {
	return &Tracker{
		client: client,
		keys:   NewRedisKeys(KeyPrefixMetrics),
		logger: log,
	}
}

// IncrementServed increments the served counter for an endpoint class
func (t *Tracker) IncrementServed(ctx context.Context, endpoint string) {
	t.increment(ctx, t.keys.Served(endpoint), endpoint)
}

// IncrementMissed increments the not-found counter for an endpoint class
func (t *Tracker) IncrementMissed(ctx context.Context, endpoint string) {
	t.increment(ctx, t.keys.Missed(endpoint), endpoint)
}

// increment bumps a counter and refreshes its TTL in one pipeline. Counter
// failures are logged and swallowed; stats must never fail a response.
func (t *Tracker) increment(ctx context.Context, key, endpoint string) {
	if t.client == nil {
		return
	}

	ttl := CountersTTLDays * hoursPerDay * time.Hour

	pipe := t.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("failed to increment serve counter",
			logger.String("endpoint", endpoint),
			logger.String("redis_key", key),
			logger.Error(err),
		)
	}
}

// GetStats returns aggregated serve counters for all endpoint classes.
func (t *Tracker) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Endpoints: make([]EndpointStats, 0, len(Endpoints))}
	if t.client == nil {
		return stats, nil
	}

	for _, endpoint := range Endpoints {
		served, err := t.counter(ctx, t.keys.Served(endpoint))
		if err != nil {
			return nil, fmt.Errorf("read served counter for %s: %w", endpoint, err)
		}
		missed, err := t.counter(ctx, t.keys.Missed(endpoint))
		if err != nil {
			return nil, fmt.Errorf("read missed counter for %s: %w", endpoint, err)
		}

		stats.Endpoints = append(stats.Endpoints, EndpointStats{
			Name:   endpoint,
			Served: served,
			Missed: missed,
		})
		stats.TotalServed += served
		stats.TotalMissed += missed
	}

	return stats, nil
}

// counter reads a single counter, treating a missing key as zero.
func (t *Tracker) counter(ctx context.Context, key string) (int64, error) {
	val, err := t.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}
