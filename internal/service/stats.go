package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// StatsService - counts match events. Storage failures are logged and never reach gameplay.
type StatsService interface {
	Record(ctx context.Context, counters ...string)
	Get(ctx context.Context) (*entity.Stats, error)
}

type statsRepo interface {
	Increment(ctx context.Context, counter string) error
	Get(ctx context.Context) (*entity.Stats, error)
}

type statsService struct {
	logger    *slog.Logger
	statsRepo statsRepo
}

func NewStatsService(logger *slog.Logger, statsRepo statsRepo) StatsService {
	return &statsService{
		logger:    logger.With("component", "stats"),
		statsRepo: statsRepo,
	}
}

func (that *statsService) Record(ctx context.Context, counters ...string) {
	log := that.logger.With("method", "Record")

	for _, counter := range counters {
		if err := that.statsRepo.Increment(ctx, counter); err != nil {
			log.Error("failed to record counter", "counter", counter, "error", err)
		}
	}
}

func (that *statsService) Get(ctx context.Context) (*entity.Stats, error) {
	stats, err := that.statsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve stats from storage: %w", err)
	}

	return stats, nil
}
