package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"eventdrop/internal/domain"
	"eventdrop/internal/port"
)

type statsRepo struct {
	db *sqlx.DB
}

// NewStatsRepo creates a new PostgreSQL-backed StatsRepository.
func NewStatsRepo(db *sqlx.DB) port.StatsRepository {
	return &statsRepo{db: db}
}

const collectionStatsQuery = `SELECT
	COUNT(*) AS total_media,
	COALESCE(SUM(size_bytes), 0) AS total_bytes,
	COUNT(CASE WHEN kind = 'guest_photo' THEN 1 END) AS guest_photos,
	COUNT(CASE WHEN kind <> 'guest_photo' THEN 1 END) AS branding_assets
FROM media_objects WHERE tenant_id = $1 AND collection_id = $2`

func (r *statsRepo) GetCollectionStats(ctx context.Context, tenantID, collectionID uuid.UUID) (*domain.CollectionStats, error) {
	var stats domain.CollectionStats
	if err := r.db.GetContext(ctx, &stats, collectionStatsQuery, tenantID, collectionID); err != nil {
		return nil, fmt.Errorf("statsRepo.GetCollectionStats: %w", err)
	}
	return &stats, nil
}
