package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"eventdrop/internal/config"
	"eventdrop/internal/domain"
	"eventdrop/internal/port"
)

// IngestCheck is the input to IngestValidator.
type IngestCheck struct {
	TenantID     uuid.UUID
	CollectionID uuid.UUID
	Kind         domain.AssetKind
	ContentType  string
	SizeBytes    int64
}

// IngestValidator rejects bad uploads before any storage I/O happens.
type IngestValidator interface {
	Validate(ctx context.Context, check IngestCheck) error
}

type ingestValidator struct {
	collections port.CollectionRepository
	policies    map[domain.AssetKind]domain.AssetPolicy
}

// NewIngestValidator creates a validator over the given per-kind policy table.
func NewIngestValidator(collections port.CollectionRepository, policies map[domain.AssetKind]domain.AssetPolicy) IngestValidator {
	return &ingestValidator{collections: collections, policies: policies}
}

// PoliciesFromConfig builds the static per asset kind policy table.
func PoliciesFromConfig(cfg *config.UploadConfig) map[domain.AssetKind]domain.AssetPolicy {
	const kib, mib = 1024, 1024 * 1024
	return map[domain.AssetKind]domain.AssetPolicy{
		domain.AssetKindGuestPhoto: {AllowedContentTypes: domain.GuestPhotoContentTypes, MaxBytes: cfg.GuestPhotoMaxMB * mib},
		domain.AssetKindLogo:       {AllowedContentTypes: domain.LogoContentTypes, MaxBytes: cfg.LogoMaxKB * kib},
		domain.AssetKindFavicon:    {AllowedContentTypes: domain.FaviconContentTypes, MaxBytes: cfg.FaviconMaxKB * kib},
		domain.AssetKindCover:      {AllowedContentTypes: domain.CoverContentTypes, MaxBytes: cfg.CoverMaxMB * mib},
	}
}

// Validate runs the checks in order and stops at the first failure:
// collection active, content type allowed, size within the ceiling.
func (v *ingestValidator) Validate(ctx context.Context, check IngestCheck) error {
	policy, ok := v.policies[check.Kind]
	if !ok {
		return domain.ErrInvalidAssetKind
	}

	collection, err := v.collections.GetByID(ctx, check.CollectionID)
	if err != nil {
		if errors.Is(err, domain.ErrCollectionNotFound) {
			return fmt.Errorf("%w: %w", domain.ErrCollectionInactive, err)
		}
		return fmt.Errorf("looking up collection: %w", err)
	}
	if !collection.IsActive || collection.TenantID != check.TenantID {
		return domain.ErrCollectionInactive
	}

	if !policy.Allows(NormalizeContentType(check.ContentType)) {
		return domain.ErrUnsupportedFileType
	}

	if check.SizeBytes > policy.MaxBytes {
		return domain.ErrFileTooLarge
	}
	if check.SizeBytes <= 0 {
		return domain.ErrEmptyFile
	}
	return nil
}

// NormalizeContentType strips parameters and lowercases a MIME type.
func NormalizeContentType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// LargestCeiling returns the highest MaxBytes across policies.
func LargestCeiling(policies map[domain.AssetKind]domain.AssetPolicy) int64 {
	var largest int64
	for _, p := range policies {
		largest = max(largest, p.MaxBytes)
	}
	return largest
}
