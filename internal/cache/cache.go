// Package cache is the Redis layer behind profile caching and the refresh
// token allow list. Redis being down never fails a request: reads miss and
// writes are dropped.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is a nil-safe Redis client.
type Client struct {
	rdb *redis.Client
}

// New connects lazily to the Redis server at addr.
func New(addr, password string, db int) *Client {
	return &Client{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (c *Client) disabled() bool {
	return c == nil || c.rdb == nil
}

// Ping checks connectivity. Used once at startup.
func (c *Client) Ping(ctx context.Context) error {
	if c.disabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Get returns the raw value under key, or nil on a miss.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c.disabled() {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil and connectivity errors both read as a miss
		return nil, nil
	}
	return data, nil
}

// Set stores value under key for ttl.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.disabled() {
		return nil
	}
	_ = c.rdb.Set(ctx, key, value, ttl).Err()
	return nil
}

// Delete removes key.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c.disabled() {
		return nil
	}
	_ = c.rdb.Del(ctx, key).Err()
	return nil
}

// GetJSON decodes the value under key into dest and reports a hit. An entry
// that no longer decodes is evicted and reported as a miss.
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	data, _ := c.Get(ctx, key)
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		_ = c.Delete(ctx, key)
		return false
	}
	return true
}

// SetJSON encodes v and stores it under key for ttl. Only encoding errors
// are returned.
func (c *Client) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, payload, ttl)
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if c.disabled() {
		return nil
	}
	return c.rdb.Close()
}
