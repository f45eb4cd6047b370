package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"eventdrop/internal/domain"
)

// MockMediaObjectRepo is a mock implementation of port.MediaObjectRepository.
type MockMediaObjectRepo struct {
	mock.Mock
}

func (m *MockMediaObjectRepo) Create(ctx context.Context, obj *domain.MediaObject) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *MockMediaObjectRepo) GetByID(ctx context.Context, tenantID, mediaID uuid.UUID) (*domain.MediaObject, error) {
	args := m.Called(ctx, tenantID, mediaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MediaObject), args.Error(1)
}

func (m *MockMediaObjectRepo) ListByCollection(ctx context.Context, tenantID, collectionID uuid.UUID, ids []uuid.UUID) ([]domain.MediaObject, error) {
	args := m.Called(ctx, tenantID, collectionID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MediaObject), args.Error(1)
}

func (m *MockMediaObjectRepo) Delete(ctx context.Context, tenantID, mediaID uuid.UUID) error {
	args := m.Called(ctx, tenantID, mediaID)
	return args.Error(0)
}
