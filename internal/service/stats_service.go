package service

import (
	"context"

	"github.com/google/uuid"

	"eventdrop/internal/domain"
	"eventdrop/internal/port"
)

// StatsService provides aggregate statistics.
type StatsService interface {
	GetCollectionStats(ctx context.Context, tenantID, collectionID uuid.UUID) (*domain.CollectionStats, error)
}

type statsService struct {
	statsRepo port.StatsRepository
}

// NewStatsService creates a new StatsService implementation.
func NewStatsService(statsRepo port.StatsRepository) StatsService {
	return &statsService{statsRepo: statsRepo}
}

func (s *statsService) GetCollectionStats(ctx context.Context, tenantID, collectionID uuid.UUID) (*domain.CollectionStats, error) {
	return s.statsRepo.GetCollectionStats(ctx, tenantID, collectionID)
}
