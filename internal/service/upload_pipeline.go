package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"eventdrop/internal/domain"
	"eventdrop/internal/port"
	"eventdrop/internal/storage/objectkey"
)

// IngestRequest is one incoming file plus its context.
type IngestRequest struct {
	TenantID     uuid.UUID
	CollectionID uuid.UUID
	Kind         domain.AssetKind
	FileName     string
	ContentType  string
	Body         []byte
	// StoredName, when set, is used as the object's file name instead of a
	// freshly generated one. Retries of the same upload must pass the same
	// value so every attempt writes to one key.
	StoredName string
}

// UploadPipeline turns an incoming file into a stored object.
//
// Ingest returns the ObjectReference for the caller to persist. If persisting
// the metadata record fails afterwards, the caller must Delete the object's
// key from storage; the pipeline keeps no state between calls and never sees
// the metadata store.
type UploadPipeline interface {
	Ingest(ctx context.Context, req IngestRequest) (*domain.ObjectReference, error)
}

type uploadPipeline struct {
	validator IngestValidator
	storage   port.ObjectStorage
	log       zerolog.Logger
}

// NewUploadPipeline creates a new UploadPipeline.
func NewUploadPipeline(validator IngestValidator, storage port.ObjectStorage, log zerolog.Logger) UploadPipeline {
	return &uploadPipeline{
		validator: validator,
		storage:   storage,
		log:       log.With().Str("component", "upload-pipeline").Logger(),
	}
}

func (p *uploadPipeline) Ingest(ctx context.Context, req IngestRequest) (*domain.ObjectReference, error) {
	contentType := NormalizeContentType(req.ContentType)
	size := int64(len(req.Body))

	if err := p.validator.Validate(ctx, IngestCheck{
		TenantID:     req.TenantID,
		CollectionID: req.CollectionID,
		Kind:         req.Kind,
		ContentType:  contentType,
		SizeBytes:    size,
	}); err != nil {
		return nil, err
	}

	fileName := req.StoredName
	if fileName == "" {
		fileName = objectkey.GenerateFileName(req.FileName, domain.FileExtensions[contentType])
	}
	key := objectkey.Make(req.TenantID.String(), req.CollectionID.String(), fileName)

	if err := p.storage.Put(ctx, key, req.Body, contentType); err != nil {
		p.log.Error().Err(err).Str("key", key).Msg("storage write failed")
		return nil, fmt.Errorf("storing object: %w", err)
	}

	p.log.Debug().
		Str("key", key).
		Str("kind", string(req.Kind)).
		Int64("bytes", size).
		Msg("object ingested")

	return &domain.ObjectReference{
		TenantID:     req.TenantID,
		CollectionID: req.CollectionID,
		Key:          key,
		ContentType:  contentType,
		SizeBytes:    size,
		OriginalName: req.FileName,
		Kind:         req.Kind,
	}, nil
}
