package port

import (
	"context"
	"time"

	"eventdrop/internal/domain"
)

// ObjectStorage abstracts a remote object store. Implementations are the only
// holders of storage credentials and do not retry; retry policy belongs to
// callers. Errors are returned as *domain.StorageError.
type ObjectStorage interface {
	// Put creates or overwrites the object at key. Repeating a Put with the
	// same key and bytes yields the same stored object.
	Put(ctx context.Context, key string, body []byte, contentType string) error
	// Delete removes the object at key. A missing key is not an error.
	Delete(ctx context.Context, key string) error
	// SignedGetURL issues a time-limited GET URL for key without checking
	// that the object exists.
	SignedGetURL(ctx context.Context, key string, ttl time.Duration) (*domain.SignedAccessURL, error)
	// PublicURL composes the unsigned URL of key under the configured public
	// base. It returns "" when no public base is configured.
	PublicURL(key string) string
	// Ping checks that the store is reachable with the configured credentials.
	Ping(ctx context.Context) error
}
