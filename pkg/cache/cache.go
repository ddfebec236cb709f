// Package cache stores the latest scan result per tenant in Redis
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/redis/go-redis/v9"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Config holds Redis connection configuration
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// Client wraps the Redis client with the scan-cache operations
type Client struct {
	rdb    *redis.Client
	logger ectologger.Logger
	ttl    time.Duration
}

// NewClient creates a new Redis client
func NewClient(cfg Config, logger ectologger.Logger) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.Infof("Connected to Redis at %s", addr)

	return &Client{
		rdb:    rdb,
		logger: logger,
		ttl:    cfg.TTL,
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks if Redis is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func scanKey(tenantID string) string {
	return fmt.Sprintf("fern:scan:latest:%s", tenantID)
}

// SetLatestScan caches a tenant's most recent scan result
func (c *Client) SetLatestScan(ctx context.Context, result *models.DuplicateScanResult) error {
	ctx, span := tracing.StartSpan(ctx, "cache.Client.SetLatestScan")
	defer span.End()

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	if err := c.rdb.Set(ctx, scanKey(result.TenantID), data, c.ttl).Err(); err != nil {
		c.logger.WithContext(ctx).WithError(err).Error("Failed to cache scan result")
		return err
	}

	return nil
}

// GetLatestScan returns a tenant's cached scan result, or (nil, nil) on a
// cache miss.
func (c *Client) GetLatestScan(ctx context.Context, tenantID string) (*models.DuplicateScanResult, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.Client.GetLatestScan")
	defer span.End()

	data, err := c.rdb.Get(ctx, scanKey(tenantID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var result models.DuplicateScanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// InvalidateLatestScan drops a tenant's cached scan result
func (c *Client) InvalidateLatestScan(ctx context.Context, tenantID string) error {
	ctx, span := tracing.StartSpan(ctx, "cache.Client.InvalidateLatestScan")
	defer span.End()

	return c.rdb.Del(ctx, scanKey(tenantID)).Err()
}
