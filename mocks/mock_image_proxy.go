package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"eventdrop/internal/service"
)

// MockImageProxy is a mock implementation of service.ImageProxy.
type MockImageProxy struct {
	mock.Mock
}

func (m *MockImageProxy) Serve(ctx context.Context, key string) (*service.ProxiedImage, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProxiedImage), args.Error(1)
}
