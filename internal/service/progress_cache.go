package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mavericks-lms/lms-api/internal/models"
)

// ProgressCache caches enrollment progress summaries in Redis. Misses and
// cache failures degrade to the database; they are never surfaced to callers.
type ProgressCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewProgressCache constructs ProgressCache.
func NewProgressCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ProgressCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached summary for an enrollment, if present.
func (c *ProgressCache) Get(ctx context.Context, enrollmentID string) (*models.ProgressSummary, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, progressKey(enrollmentID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("progress cache read failed", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		}
		return nil, false
	}
	var summary models.ProgressSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		c.logger.Warn("progress cache decode failed", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return nil, false
	}
	return &summary, true
}

// Set stores a summary with the configured TTL.
func (c *ProgressCache) Set(ctx context.Context, summary *models.ProgressSummary) {
	if c == nil || c.client == nil || summary == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, progressKey(summary.EnrollmentID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("progress cache write failed", zap.String("enrollment_id", summary.EnrollmentID), zap.Error(err))
	}
}

// Invalidate drops the cached summary after a recalculation.
func (c *ProgressCache) Invalidate(ctx context.Context, enrollmentID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, progressKey(enrollmentID)).Err(); err != nil {
		c.logger.Warn("progress cache invalidation failed", zap.String("enrollment_id", enrollmentID), zap.Error(err))
	}
}

func progressKey(enrollmentID string) string {
	return fmt.Sprintf("progress:enrollment:%s", enrollmentID)
}
