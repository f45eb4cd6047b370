package port

import (
	"context"
	"io"
)

// FetchedObject is an open response body from a signed URL fetch. Callers
// must close Body.
type FetchedObject struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// ObjectFetcher retrieves object bytes through a signed URL. A 404 is reported
// as domain.ErrNotFound, any other non-2xx as *domain.UpstreamError.
type ObjectFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedObject, error)
}
