package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"eventdrop/internal/service"
)

// MockIngestValidator is a mock implementation of service.IngestValidator.
type MockIngestValidator struct {
	mock.Mock
}

func (m *MockIngestValidator) Validate(ctx context.Context, check service.IngestCheck) error {
	args := m.Called(ctx, check)
	return args.Error(0)
}
