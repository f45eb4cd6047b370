package port

import (
	"context"

	"github.com/google/uuid"

	"eventdrop/internal/domain"
)

// MediaObjectRepository persists metadata records of stored objects.
// All query methods include tenantID to enforce tenant isolation at the data layer.
type MediaObjectRepository interface {
	Create(ctx context.Context, obj *domain.MediaObject) error
	GetByID(ctx context.Context, tenantID, mediaID uuid.UUID) (*domain.MediaObject, error)
	// ListByCollection returns records in upload order. A non-empty ids
	// restricts the result to those records.
	ListByCollection(ctx context.Context, tenantID, collectionID uuid.UUID, ids []uuid.UUID) ([]domain.MediaObject, error)
	Delete(ctx context.Context, tenantID, mediaID uuid.UUID) error
}
