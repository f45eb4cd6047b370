package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"eventdrop/internal/domain"
	"eventdrop/internal/service"
)

// MockUploadPipeline is a mock implementation of service.UploadPipeline.
type MockUploadPipeline struct {
	mock.Mock
}

func (m *MockUploadPipeline) Ingest(ctx context.Context, req service.IngestRequest) (*domain.ObjectReference, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ObjectReference), args.Error(1)
}
