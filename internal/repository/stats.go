package repository

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

const statsKey = "gomoku:stats"

type StatsRepository interface {
	Increment(ctx context.Context, counter string) error
	Get(ctx context.Context) (*entity.Stats, error)
}

type dbStats struct {
	client *redis.Client
}

func NewStatsRepository(client *redis.Client) StatsRepository {
	return &dbStats{
		client: client,
	}
}

func (that *dbStats) Increment(ctx context.Context, counter string) error {
	if err := that.client.HIncrBy(ctx, statsKey, counter, 1).Err(); err != nil {
		return fmt.Errorf("failed to increment %s: %w", counter, err)
	}

	return nil
}

func (that *dbStats) Get(ctx context.Context) (*entity.Stats, error) {
	response, err := that.client.HGetAll(ctx, statsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	stats := &entity.Stats{}
	for counter, raw := range response {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse counter %s: %w", counter, err)
		}

		stats.Set(counter, value)
	}

	return stats, nil
}

// memoryStats - used when redis is disabled, counters live as long as the process.
type memoryStats struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryStatsRepository() StatsRepository {
	return &memoryStats{
		counters: make(map[string]int64),
	}
}

func (that *memoryStats) Increment(_ context.Context, counter string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.counters[counter]++

	return nil
}

func (that *memoryStats) Get(_ context.Context) (*entity.Stats, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	stats := &entity.Stats{}
	for counter, value := range that.counters {
		stats.Set(counter, value)
	}

	return stats, nil
}
