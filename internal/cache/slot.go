package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vrukshagro/backend-go/internal/config"
	"github.com/vrukshagro/backend-go/internal/domain"
)

const (
	slotPeriodKeyPrefix = "slot:period:"
	scanBatchSize       = 100
)

// SlotAvailabilityCache fronts slot-period reads. Reserve and release
// invalidate the period's entry, so cached availability is only ever stale
// for the configured TTL between mutations from other nodes.
type SlotAvailabilityCache interface {
	GetPeriod(ctx context.Context, periodID int64) (*domain.SlotPeriod, bool, error)
	SetPeriod(ctx context.Context, period *domain.SlotPeriod) error
	InvalidatePeriod(ctx context.Context, periodID int64) error
	InvalidateAll(ctx context.Context) error
}

type redisSlotCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopSlotCache struct{}

func NewSlotCache(cfg config.CacheConfig) (SlotAvailabilityCache, error) {
	if !cfg.Enabled {
		return &noopSlotCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisSlotCache{client: client, ttl: ttl}, nil
}

func NewNoopSlotCache() SlotAvailabilityCache {
	return &noopSlotCache{}
}

func slotPeriodKey(periodID int64) string {
	return fmt.Sprintf("%s%d", slotPeriodKeyPrefix, periodID)
}

func (c *redisSlotCache) GetPeriod(ctx context.Context, periodID int64) (*domain.SlotPeriod, bool, error) {
	payload, err := c.client.Get(ctx, slotPeriodKey(periodID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var period domain.SlotPeriod
	if err := json.Unmarshal(payload, &period); err != nil {
		return nil, false, fmt.Errorf("decode slot period cache: %w", err)
	}
	return &period, true, nil
}

func (c *redisSlotCache) SetPeriod(ctx context.Context, period *domain.SlotPeriod) error {
	payload, err := json.Marshal(period)
	if err != nil {
		return fmt.Errorf("encode slot period cache: %w", err)
	}
	if err := c.client.Set(ctx, slotPeriodKey(period.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisSlotCache) InvalidatePeriod(ctx context.Context, periodID int64) error {
	if err := c.client.Del(ctx, slotPeriodKey(periodID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *redisSlotCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, slotPeriodKeyPrefix, scanBatchSize)
}

func (c *noopSlotCache) GetPeriod(context.Context, int64) (*domain.SlotPeriod, bool, error) {
	return nil, false, nil
}

func (c *noopSlotCache) SetPeriod(context.Context, *domain.SlotPeriod) error { return nil }

func (c *noopSlotCache) InvalidatePeriod(context.Context, int64) error { return nil }

func (c *noopSlotCache) InvalidateAll(context.Context) error { return nil }
