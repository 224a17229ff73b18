// Package cache keeps the latest report in Redis so dashboard reads do
// not hit Postgres on every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unitesync/attribution-engine/internal/config"
	"github.com/unitesync/attribution-engine/internal/domain"
)

const latestKey = "attribution:report:latest"

// ErrMiss is returned when no report is cached.
var ErrMiss = errors.New("report cache miss")

// ReportCache stores the latest report with a TTL.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a ReportCache from the Redis configuration.
func New(cfg config.RedisConfig) *ReportCache {
	return &ReportCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl: cfg.TTL(),
	}
}

// NewWithClient wraps an existing Redis client, used by tests.
func NewWithClient(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

// SetLatest caches the report.
func (c *ReportCache) SetLatest(ctx context.Context, rep *domain.Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := c.client.Set(ctx, latestKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching report: %w", err)
	}
	return nil
}

// GetLatest returns the cached report, or ErrMiss.
func (c *ReportCache) GetLatest(ctx context.Context) (*domain.Report, error) {
	data, err := c.client.Get(ctx, latestKey).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading report cache: %w", err)
	}

	var rep domain.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("parsing cached report: %w", err)
	}
	return &rep, nil
}

// Close releases the underlying client.
func (c *ReportCache) Close() error { return c.client.Close() }
