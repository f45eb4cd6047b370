package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"eventdrop/internal/domain"
)

// MockStatsRepository is a mock implementation of port.StatsRepository.
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) GetCollectionStats(ctx context.Context, tenantID, collectionID uuid.UUID) (*domain.CollectionStats, error) {
	args := m.Called(ctx, tenantID, collectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectionStats), args.Error(1)
}
