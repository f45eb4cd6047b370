package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"eventdrop/internal/domain"
	"eventdrop/internal/service"
)

// MockMediaService is a mock implementation of service.MediaService.
type MockMediaService struct {
	mock.Mock
}

func (m *MockMediaService) UploadGuestPhoto(ctx context.Context, input service.UploadInput) (*domain.MediaObject, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MediaObject), args.Error(1)
}

func (m *MockMediaService) UploadAsset(ctx context.Context, input service.UploadInput) (*domain.MediaObject, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MediaObject), args.Error(1)
}

func (m *MockMediaService) ListMedia(ctx context.Context, tenantID, collectionID uuid.UUID) ([]domain.MediaObject, error) {
	args := m.Called(ctx, tenantID, collectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MediaObject), args.Error(1)
}

// BuildArchive writes the bytes given as the mock's third return value, if
// any, before returning.
func (m *MockMediaService) BuildArchive(ctx context.Context, tenantID, collectionID uuid.UUID, ids []uuid.UUID, w io.Writer) (*service.ArchiveResult, error) {
	args := m.Called(ctx, tenantID, collectionID, ids, w)
	if len(args) > 2 {
		if data, ok := args.Get(2).([]byte); ok {
			_, _ = w.Write(data)
		}
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ArchiveResult), args.Error(1)
}

func (m *MockMediaService) ServeImage(ctx context.Context, tenantID, mediaID uuid.UUID) (*service.ProxiedImage, error) {
	args := m.Called(ctx, tenantID, mediaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProxiedImage), args.Error(1)
}

func (m *MockMediaService) GetDownloadURL(ctx context.Context, tenantID, mediaID uuid.UUID) (*domain.SignedAccessURL, error) {
	args := m.Called(ctx, tenantID, mediaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SignedAccessURL), args.Error(1)
}

func (m *MockMediaService) DeleteMedia(ctx context.Context, tenantID, mediaID uuid.UUID) error {
	args := m.Called(ctx, tenantID, mediaID)
	return args.Error(0)
}
