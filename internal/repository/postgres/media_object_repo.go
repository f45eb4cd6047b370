package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"eventdrop/internal/domain"
	"eventdrop/internal/port"
)

const mediaObjectColumns = `id, tenant_id, collection_id, kind, storage_key, original_name,
	content_type, size_bytes, created_at`

type mediaObjectRepo struct {
	db *sqlx.DB
}

// NewMediaObjectRepo creates a new PostgreSQL-backed MediaObjectRepository.
func NewMediaObjectRepo(db *sqlx.DB) port.MediaObjectRepository {
	return &mediaObjectRepo{db: db}
}

func (r *mediaObjectRepo) Create(ctx context.Context, m *domain.MediaObject) error {
	m.CreatedAt = time.Now().UTC()

	query := `INSERT INTO media_objects (` + mediaObjectColumns + `)
		VALUES (:id, :tenant_id, :collection_id, :kind, :storage_key, :original_name,
			:content_type, :size_bytes, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("mediaObjectRepo.Create: %w", err)
	}
	return nil
}

func (r *mediaObjectRepo) GetByID(ctx context.Context, tenantID, mediaID uuid.UUID) (*domain.MediaObject, error) {
	var m domain.MediaObject
	err := r.db.GetContext(ctx, &m,
		"SELECT "+mediaObjectColumns+" FROM media_objects WHERE id = $1 AND tenant_id = $2",
		mediaID, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMediaNotFound
		}
		return nil, fmt.Errorf("mediaObjectRepo.GetByID: %w", err)
	}
	return &m, nil
}

func (r *mediaObjectRepo) ListByCollection(ctx context.Context, tenantID, collectionID uuid.UUID, ids []uuid.UUID) ([]domain.MediaObject, error) {
	query := "SELECT " + mediaObjectColumns + " FROM media_objects WHERE tenant_id = ? AND collection_id = ?"
	args := []interface{}{tenantID, collectionID}
	if len(ids) > 0 {
		query += " AND id IN (?)"
		args = append(args, ids)
	}
	query += " ORDER BY created_at, id"

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("mediaObjectRepo.ListByCollection: building query: %w", err)
	}

	var items []domain.MediaObject
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("mediaObjectRepo.ListByCollection: %w", err)
	}
	return items, nil
}

func (r *mediaObjectRepo) Delete(ctx context.Context, tenantID, mediaID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM media_objects WHERE id = $1 AND tenant_id = $2", mediaID, tenantID)
	if err != nil {
		return fmt.Errorf("mediaObjectRepo.Delete: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mediaObjectRepo.Delete rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrMediaNotFound
	}
	return nil
}
