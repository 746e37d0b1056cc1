// Package cache memoizes room listings in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lagoonresort/reservation-backend/internal/config"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const roomListKey = "rooms:list"

// NewRedisClient connects to Redis. Returns nil, nil when no address is
// configured so callers can run uncached.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// RoomCache stores the full room listing under a single key
type RoomCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoomCache creates a room cache with the given entry lifetime
func NewRoomCache(client *redis.Client, ttl time.Duration) *RoomCache {
	return &RoomCache{client: client, ttl: ttl}
}

// GetRooms returns the cached listing. ok is false on a miss.
func (c *RoomCache) GetRooms(ctx context.Context) (rooms []models.Room, ok bool, err error) {
	data, err := c.client.Get(ctx, roomListKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read room cache: %w", err)
	}

	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, false, fmt.Errorf("failed to decode room cache: %w", err)
	}
	return rooms, true, nil
}

// SetRooms stores the listing for the configured TTL
func (c *RoomCache) SetRooms(ctx context.Context, rooms []models.Room) error {
	data, err := json.Marshal(rooms)
	if err != nil {
		return fmt.Errorf("failed to encode room cache: %w", err)
	}

	if err := c.client.Set(ctx, roomListKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write room cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached listing
func (c *RoomCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, roomListKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate room cache: %w", err)
	}
	return nil
}

// Noop is used when Redis is not configured
type Noop struct{}

// GetRooms always misses
func (Noop) GetRooms(context.Context) ([]models.Room, bool, error) { return nil, false, nil }

// SetRooms discards the listing
func (Noop) SetRooms(context.Context, []models.Room) error { return nil }

// Invalidate does nothing
func (Noop) Invalidate(context.Context) error { return nil }
