package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/paces/backend/internal/metrics"
	"github.com/paces/backend/pkg/logger"
)

// Client is a cache.Store backed by Redis. Values expire after ttl.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get lookup cache: %w", err)
	}

	metrics.CacheHits.WithLabelValues("redis").Inc()
	logger.Debug("Lookup cache hit", zap.String("key", key))
	return val, true, nil
}

func (c *Client) Set(ctx context.Context, key, value string) error {
	err := c.client.Set(ctx, key, value, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set lookup cache: %w", err)
	}
	return nil
}

// Invalidate drops every cached answer of one service ("uniprot", "kegg").
func (c *Client) Invalidate(ctx context.Context, service string) error {
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("lookup:%s:*", service), 0).Iterator()
	for iter.Next(ctx) {
		err := c.client.Del(ctx, iter.Val()).Err()
		if err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Lookup cache invalidated", zap.String("service", service))
	return nil
}
