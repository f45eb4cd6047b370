package domain

import (
	"time"

	"github.com/google/uuid"
)

// Collection is an event album that guests upload photos into. Its lifecycle
// is owned by the event management service; this service only reads it.
type Collection struct {
	ID        uuid.UUID `db:"id" json:"id"`
	TenantID  uuid.UUID `db:"tenant_id" json:"tenant_id"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ObjectReference identifies bytes written to the object store. It is
// immutable once the write succeeds.
type ObjectReference struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	CollectionID uuid.UUID `json:"collection_id"`
	Key          string    `json:"key"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	OriginalName string    `json:"original_name"`
	Kind         AssetKind `json:"kind"`
}

// SignedAccessURL is a time-limited URL granting read access to one object.
// It is never persisted.
type SignedAccessURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MediaObject is the metadata record of a stored object.
type MediaObject struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TenantID     uuid.UUID `db:"tenant_id" json:"tenant_id"`
	CollectionID uuid.UUID `db:"collection_id" json:"collection_id"`
	Kind         AssetKind `db:"kind" json:"kind"`
	StorageKey   string    `db:"storage_key" json:"-"`
	OriginalName string    `db:"original_name" json:"original_name"`
	ContentType  string    `db:"content_type" json:"content_type"`
	SizeBytes    int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// NewMediaObject builds the metadata record for a freshly stored object.
func NewMediaObject(ref *ObjectReference) *MediaObject {
	return &MediaObject{
		ID:           uuid.New(),
		TenantID:     ref.TenantID,
		CollectionID: ref.CollectionID,
		Kind:         ref.Kind,
		StorageKey:   ref.Key,
		OriginalName: ref.OriginalName,
		ContentType:  ref.ContentType,
		SizeBytes:    ref.SizeBytes,
	}
}

// Reference returns the object reference the record points at.
func (m *MediaObject) Reference() ObjectReference {
	return ObjectReference{
		TenantID:     m.TenantID,
		CollectionID: m.CollectionID,
		Key:          m.StorageKey,
		ContentType:  m.ContentType,
		SizeBytes:    m.SizeBytes,
		OriginalName: m.OriginalName,
		Kind:         m.Kind,
	}
}

// CollectionStats aggregates a collection's stored media.
type CollectionStats struct {
	TotalMedia     int   `db:"total_media" json:"total_media"`
	TotalBytes     int64 `db:"total_bytes" json:"total_bytes"`
	GuestPhotos    int   `db:"guest_photos" json:"guest_photos"`
	BrandingAssets int   `db:"branding_assets" json:"branding_assets"`
}
