package port

import (
	"context"

	"github.com/google/uuid"

	"eventdrop/internal/domain"
)

// CollectionRepository reads collections owned by the event management
// service. GetByID returns domain.ErrCollectionNotFound for unknown IDs.
type CollectionRepository interface {
	GetByID(ctx context.Context, collectionID uuid.UUID) (*domain.Collection, error)
}
