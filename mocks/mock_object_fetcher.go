package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"eventdrop/internal/port"
)

// MockObjectFetcher is a mock implementation of port.ObjectFetcher.
type MockObjectFetcher struct {
	mock.Mock
}

func (m *MockObjectFetcher) Fetch(ctx context.Context, url string) (*port.FetchedObject, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.FetchedObject), args.Error(1)
}
