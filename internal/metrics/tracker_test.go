package metrics

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northpine/newsroom-api/internal/logger"
)

func newTestTracker(t *testing.T) (*Tracker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewTracker(client, logger.NewNopLogger()), mr
}

func TestTrackerIncrementServed(t *testing.T) {
	tracker, mr := newTestTracker(t)
	ctx := context.Background()

	tracker.IncrementServed(ctx, EndpointHome)
	tracker.IncrementServed(ctx, EndpointHome)
	tracker.IncrementServed(ctx, EndpointArticle)

	val, err := mr.Get("newsroom:metrics:served:home")
	require.NoError(t, err)
	assert.Equal(t, "2", val)

	val, err = mr.Get("newsroom:metrics:served:article")
	require.NoError(t, err)
	assert.Equal(t, "1", val)

	// counters expire so stale deployments do not accumulate forever
	assert.Positive(t, mr.TTL("newsroom:metrics:served:home"))
}

func TestTrackerGetStats(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	tracker.IncrementServed(ctx, EndpointHome)
	tracker.IncrementServed(ctx, EndpointSection)
	tracker.IncrementServed(ctx, EndpointSection)
	tracker.IncrementMissed(ctx, EndpointArticle)

	stats, err := tracker.GetStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalServed)
	assert.Equal(t, int64(1), stats.TotalMissed)
	require.Len(t, stats.Endpoints, 3)

	byName := make(map[string]EndpointStats, len(stats.Endpoints))
	for _, ep := range stats.Endpoints {
		byName[ep.Name] = ep
	}
	assert.Equal(t, int64(1), byName[EndpointHome].Served)
	assert.Equal(t, int64(2), byName[EndpointSection].Served)
	assert.Equal(t, int64(1), byName[EndpointArticle].Missed)
}

func TestTrackerGetStatsEmpty(t *testing.T) {
	tracker, _ := newTestTracker(t)

	stats, err := tracker.GetStats(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.TotalServed)
	assert.Zero(t, stats.TotalMissed)
	assert.Len(t, stats.Endpoints, 3)
}

func TestTrackerNilClientNoOp(t *testing.T) {
	tracker := NewTracker(nil, logger.NewNopLogger())
	ctx := context.Background()

	tracker.IncrementServed(ctx, EndpointHome)
	tracker.IncrementMissed(ctx, EndpointHome)

	stats, err := tracker.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalServed)
	assert.Empty(t, stats.Endpoints)
}
