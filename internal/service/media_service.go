package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"eventdrop/internal/domain"
	"eventdrop/internal/metrics"
	"eventdrop/internal/port"
	"eventdrop/internal/storage/objectkey"
)

// UploadInput is the DTO for upload requests.
type UploadInput struct {
	TenantID     uuid.UUID
	CollectionID uuid.UUID
	Kind         domain.AssetKind
	FileName     string
	ContentType  string
	Body         []byte
}

// MediaService defines the media management contract.
type MediaService interface {
	// UploadGuestPhoto stores a guest photo. The owning tenant is resolved
	// from the collection since guests are not authenticated.
	UploadGuestPhoto(ctx context.Context, input UploadInput) (*domain.MediaObject, error)
	// UploadAsset stores an organizer's branding asset.
	UploadAsset(ctx context.Context, input UploadInput) (*domain.MediaObject, error)
	ListMedia(ctx context.Context, tenantID, collectionID uuid.UUID) ([]domain.MediaObject, error)
	// BuildArchive writes a ZIP of the collection's media to w. A non-empty
	// ids restricts the archive to those records.
	BuildArchive(ctx context.Context, tenantID, collectionID uuid.UUID, ids []uuid.UUID, w io.Writer) (*ArchiveResult, error)
	ServeImage(ctx context.Context, tenantID, mediaID uuid.UUID) (*ProxiedImage, error)
	GetDownloadURL(ctx context.Context, tenantID, mediaID uuid.UUID) (*domain.SignedAccessURL, error)
	DeleteMedia(ctx context.Context, tenantID, mediaID uuid.UUID) error
}

// MediaServiceConfig holds the caller-side retry policy and URL lifetime.
type MediaServiceConfig struct {
	SignedURLTTL  time.Duration
	RetryAttempts int
	RetryInterval time.Duration
}

type mediaService struct {
	collections port.CollectionRepository
	media       port.MediaObjectRepository
	pipeline    UploadPipeline
	archives    ArchiveBuilder
	proxy       ImageProxy
	storage     port.ObjectStorage
	cfg         MediaServiceConfig
	log         zerolog.Logger
}

// NewMediaService creates a new MediaService implementation.
func NewMediaService(
	collections port.CollectionRepository,
	media port.MediaObjectRepository,
	pipeline UploadPipeline,
	archives ArchiveBuilder,
	proxy ImageProxy,
	storage port.ObjectStorage,
	cfg MediaServiceConfig,
	log zerolog.Logger,
) MediaService {
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}
	return &mediaService{
		collections: collections,
		media:       media,
		pipeline:    pipeline,
		archives:    archives,
		proxy:       proxy,
		storage:     storage,
		cfg:         cfg,
		log:         log.With().Str("component", "media-service").Logger(),
	}
}

func (s *mediaService) UploadGuestPhoto(ctx context.Context, input UploadInput) (*domain.MediaObject, error) {
	collection, err := s.collections.GetByID(ctx, input.CollectionID)
	if err != nil {
		if errors.Is(err, domain.ErrCollectionNotFound) {
			metrics.RecordUpload(string(domain.AssetKindGuestPhoto), "rejected", 0)
			return nil, fmt.Errorf("%w: %w", domain.ErrCollectionInactive, err)
		}
		return nil, fmt.Errorf("looking up collection: %w", err)
	}
	input.TenantID = collection.TenantID
	input.Kind = domain.AssetKindGuestPhoto
	return s.upload(ctx, input)
}

func (s *mediaService) UploadAsset(ctx context.Context, input UploadInput) (*domain.MediaObject, error) {
	if _, ok := domain.BrandingKinds[input.Kind]; !ok {
		return nil, domain.ErrInvalidAssetKind
	}
	return s.upload(ctx, input)
}

func (s *mediaService) upload(ctx context.Context, input UploadInput) (*domain.MediaObject, error) {
	kind := string(input.Kind)
	ext := domain.FileExtensions[NormalizeContentType(input.ContentType)]
	req := IngestRequest{
		TenantID:     input.TenantID,
		CollectionID: input.CollectionID,
		Kind:         input.Kind,
		FileName:     input.FileName,
		ContentType:  input.ContentType,
		Body:         input.Body,
		StoredName:   objectkey.GenerateFileName(input.FileName, ext),
	}

	var ref *domain.ObjectReference
	err := s.retry(ctx, "ingest", func() error {
		var err error
		ref, err = s.pipeline.Ingest(ctx, req)
		return err
	})
	if err != nil {
		if domain.IsValidationError(err) {
			metrics.RecordUpload(kind, "rejected", 0)
			return nil, err
		}
		metrics.RecordUpload(kind, "error", 0)
		if domain.IsTemporary(err) {
			// A failed write may still have landed.
			key := objectkey.Make(req.TenantID.String(), req.CollectionID.String(), req.StoredName)
			if delErr := s.storage.Delete(context.WithoutCancel(ctx), key); delErr != nil {
				s.log.Warn().Err(delErr).Str("key", key).Msg("cleanup after failed upload failed")
			}
		}
		return nil, err
	}

	obj := domain.NewMediaObject(ref)
	if err := s.media.Create(ctx, obj); err != nil {
		s.log.Error().Err(err).Str("key", ref.Key).Msg("recording media failed, removing stored object")
		if delErr := s.storage.Delete(context.WithoutCancel(ctx), ref.Key); delErr != nil {
			s.log.Error().Err(delErr).Str("key", ref.Key).Msg("compensating delete failed")
		}
		metrics.RecordUpload(kind, "error", 0)
		return nil, fmt.Errorf("creating media record: %w", err)
	}

	metrics.RecordUpload(kind, "success", ref.SizeBytes)
	s.log.Info().
		Str("media_id", obj.ID.String()).
		Str("collection_id", obj.CollectionID.String()).
		Str("kind", kind).
		Int64("bytes", obj.SizeBytes).
		Msg("media uploaded")
	return obj, nil
}

func (s *mediaService) ListMedia(ctx context.Context, tenantID, collectionID uuid.UUID) ([]domain.MediaObject, error) {
	items, err := s.media.ListByCollection(ctx, tenantID, collectionID, nil)
	if err != nil {
		return nil, fmt.Errorf("listing media: %w", err)
	}
	return items, nil
}

func (s *mediaService) BuildArchive(ctx context.Context, tenantID, collectionID uuid.UUID, ids []uuid.UUID, w io.Writer) (*ArchiveResult, error) {
	items, err := s.media.ListByCollection(ctx, tenantID, collectionID, ids)
	if err != nil {
		return nil, fmt.Errorf("listing media: %w", err)
	}
	if len(items) == 0 {
		return &ArchiveResult{}, domain.ErrEmptyArchive
	}

	refs := make([]domain.ObjectReference, len(items))
	for i := range items {
		refs[i] = items[i].Reference()
	}
	return s.archives.Build(ctx, ArchiveJob{Objects: refs}, w)
}

func (s *mediaService) ServeImage(ctx context.Context, tenantID, mediaID uuid.UUID) (*ProxiedImage, error) {
	obj, err := s.media.GetByID(ctx, tenantID, mediaID)
	if err != nil {
		return nil, err
	}

	var img *ProxiedImage
	err = s.retryN(ctx, "proxy", 2, func() error {
		var err error
		img, err = s.proxy.Serve(ctx, obj.StorageKey)
		return err
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (s *mediaService) GetDownloadURL(ctx context.Context, tenantID, mediaID uuid.UUID) (*domain.SignedAccessURL, error) {
	obj, err := s.media.GetByID(ctx, tenantID, mediaID)
	if err != nil {
		return nil, err
	}
	if public := s.storage.PublicURL(obj.StorageKey); public != "" {
		return &domain.SignedAccessURL{URL: public}, nil
	}
	return s.storage.SignedGetURL(ctx, obj.StorageKey, s.cfg.SignedURLTTL)
}

func (s *mediaService) DeleteMedia(ctx context.Context, tenantID, mediaID uuid.UUID) error {
	obj, err := s.media.GetByID(ctx, tenantID, mediaID)
	if err != nil {
		return err
	}
	// The record goes first so a failure never leaves a row pointing at
	// missing bytes. An object left behind is only logged.
	if err := s.media.Delete(ctx, tenantID, mediaID); err != nil {
		return fmt.Errorf("deleting media record: %w", err)
	}
	if err := s.storage.Delete(context.WithoutCancel(ctx), obj.StorageKey); err != nil {
		s.log.Error().Err(err).
			Str("media_id", mediaID.String()).
			Str("key", obj.StorageKey).
			Msg("media record deleted but stored object left behind")
	}
	s.log.Info().Str("media_id", mediaID.String()).Msg("media deleted")
	return nil
}

func (s *mediaService) retry(ctx context.Context, op string, fn func() error) error {
	return s.retryN(ctx, op, s.cfg.RetryAttempts, fn)
}

// retryN runs fn up to attempts times, retrying only transient storage and
// upstream faults.
func (s *mediaService) retryN(ctx context.Context, op string, attempts int, fn func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.cfg.RetryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)

	return backoff.RetryNotify(func() error {
		err := fn()
		if err != nil && !domain.IsTemporary(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, next time.Duration) {
		s.log.Warn().Err(err).Str("op", op).Dur("retry_in", next).Msg("transient failure, retrying")
	})
}
