package port

import (
	"context"

	"github.com/google/uuid"

	"eventdrop/internal/domain"
)

// StatsRepository provides aggregate statistics queries.
type StatsRepository interface {
	GetCollectionStats(ctx context.Context, tenantID, collectionID uuid.UUID) (*domain.CollectionStats, error)
}
