package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"eventdrop/internal/domain"
	"eventdrop/internal/port"
)

type collectionRepo struct {
	db *sqlx.DB
}

// NewCollectionRepo creates a new PostgreSQL-backed CollectionRepository.
func NewCollectionRepo(db *sqlx.DB) port.CollectionRepository {
	return &collectionRepo{db: db}
}

func (r *collectionRepo) GetByID(ctx context.Context, collectionID uuid.UUID) (*domain.Collection, error) {
	var c domain.Collection
	err := r.db.GetContext(ctx, &c,
		`SELECT id, tenant_id, name, is_active, created_at, updated_at
		 FROM collections WHERE id = $1`, collectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("collectionRepo.GetByID: %w", err)
	}
	return &c, nil
}
