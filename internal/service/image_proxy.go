package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"eventdrop/internal/domain"
	"eventdrop/internal/metrics"
	"eventdrop/internal/port"
)

// ProxiedImage is an open stream of a stored object's bytes. Callers must
// close Body.
type ProxiedImage struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// ImageProxy serves a stored object's bytes without exposing storage
// credentials or the permanent object URL. It holds no state across calls.
type ImageProxy interface {
	// Serve returns domain.ErrNotFound when the store has no object at key
	// and *domain.UpstreamError for any other non-2xx response.
	Serve(ctx context.Context, key string) (*ProxiedImage, error)
}

type imageProxy struct {
	storage port.ObjectStorage
	fetcher port.ObjectFetcher
	ttl     time.Duration
	log     zerolog.Logger
}

// NewImageProxy creates an ImageProxy that signs URLs valid for ttl.
func NewImageProxy(storage port.ObjectStorage, fetcher port.ObjectFetcher, ttl time.Duration, log zerolog.Logger) ImageProxy {
	return &imageProxy{
		storage: storage,
		fetcher: fetcher,
		ttl:     ttl,
		log:     log.With().Str("component", "image-proxy").Logger(),
	}
}

func (p *imageProxy) Serve(ctx context.Context, key string) (*ProxiedImage, error) {
	signed, err := p.storage.SignedGetURL(ctx, key, p.ttl)
	if err != nil {
		metrics.RecordProxy("error")
		return nil, fmt.Errorf("signing %q: %w", key, err)
	}

	obj, err := p.fetcher.Fetch(ctx, signed.URL)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			metrics.RecordProxy("not_found")
		default:
			metrics.RecordProxy("error")
			p.log.Error().Err(err).Str("key", key).Msg("upstream fetch failed")
		}
		return nil, err
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	metrics.RecordProxy("success")
	return &ProxiedImage{Body: obj.Body, ContentType: contentType, ContentLength: obj.ContentLength}, nil
}
