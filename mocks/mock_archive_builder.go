package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"eventdrop/internal/service"
)

// MockArchiveBuilder is a mock implementation of service.ArchiveBuilder.
type MockArchiveBuilder struct {
	mock.Mock
}

func (m *MockArchiveBuilder) Build(ctx context.Context, job service.ArchiveJob, w io.Writer) (*service.ArchiveResult, error) {
	args := m.Called(ctx, job, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ArchiveResult), args.Error(1)
}

func (m *MockArchiveBuilder) Stream(ctx context.Context, job service.ArchiveJob) io.ReadCloser {
	args := m.Called(ctx, job)
	return args.Get(0).(io.ReadCloser)
}
