package progress

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, time.Minute), mr
}

func TestSetAndGetPhase(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.SetPhase(ctx, "job1", "scraping")
	phase, err := c.GetPhase(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, "scraping", phase)

	c.SetPhase(ctx, "job1", "post_processing")
	phase, err = c.GetPhase(ctx, "job1")
	require.NoError(t, err)
	assert.Equal(t, "post_processing", phase)
}

func TestGetPhaseUnknownJob(t *testing.T) {
	c, _ := newTestCache(t)
	phase, err := c.GetPhase(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, phase)
}

func TestPhaseExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.SetPhase(ctx, "job1", "done")
	mr.FastForward(2 * time.Minute)

	phase, err := c.GetPhase(ctx, "job1")
	require.NoError(t, err)
	assert.Empty(t, phase)
}

func TestClear(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.SetPhase(ctx, "job1", "queued")
	require.NoError(t, c.Clear(ctx, "job1"))
	phase, err := c.GetPhase(ctx, "job1")
	require.NoError(t, err)
	assert.Empty(t, phase)
}

func TestNilCacheIsNoOp(t *testing.T) {
	var c *Cache
	c.SetPhase(context.Background(), "job1", "queued")
	phase, err := c.GetPhase(context.Background(), "job1")
	require.NoError(t, err)
	assert.Empty(t, phase)
	assert.NoError(t, c.Clear(context.Background(), "job1"))
}
