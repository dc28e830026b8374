// Package progress tracks the coarse phase of running validation jobs in
// Redis so pollers can show movement before the job reaches a terminal
// status. Phases: queued, extracting_keywords, scraping, post_processing,
// done, failed.
package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/idea-validator/internal/pkg/logger"
)

const defaultTTL = time.Hour

// Cache stores job phases with a TTL. A nil *Cache is a no-op tracker so
// callers never have to branch on Redis being configured.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a phase cache. A zero ttl uses one hour.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func key(jobID string) string { return "validation:phase:" + jobID }

// SetPhase records the job's current phase. Failures are logged and
// swallowed; progress display must never break processing.
func (c *Cache) SetPhase(ctx context.Context, jobID, phase string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key(jobID), phase, c.ttl).Err(); err != nil {
		logger.Warn("phase update failed", "job_id", jobID, "phase", phase, "error", err.Error())
	}
}

// GetPhase returns the job's recorded phase, or "" when none is stored.
func (c *Cache) GetPhase(ctx context.Context, jobID string) (string, error) {
	if c == nil || c.client == nil {
		return "", nil
	}
	phase, err := c.client.Get(ctx, key(jobID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get phase for %s: %w", jobID, err)
	}
	return phase, nil
}

// Clear drops the stored phase, used when a job is deleted.
func (c *Cache) Clear(ctx context.Context, jobID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, key(jobID)).Err()
}
