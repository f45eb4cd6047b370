package service_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"eventdrop/internal/domain"
	"eventdrop/internal/port"
)

const storeURL = "https://store.test/"

// memStorage signs keys into storeURL-prefixed URLs and keeps Put bytes.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (s *memStorage) Put(_ context.Context, key string, body []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), body...)
	return nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memStorage) SignedGetURL(_ context.Context, key string, ttl time.Duration) (*domain.SignedAccessURL, error) {
	return &domain.SignedAccessURL{URL: storeURL + key, ExpiresAt: time.Now().Add(ttl)}, nil
}

func (s *memStorage) PublicURL(string) string { return "" }

func (s *memStorage) Ping(context.Context) error { return nil }

var _ port.ObjectStorage = (*memStorage)(nil)

// fakeObject scripts how fakeFetcher answers one URL.
type fakeObject struct {
	data  []byte
	delay time.Duration
	err   error
	// block waits for the request context to end.
	block bool
	// chunked omits the Content-Length.
	chunked bool
}

// fakeFetcher serves scripted objects and tracks concurrent fetches.
type fakeFetcher struct {
	objects     map[string]fakeObject
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	calls       atomic.Int32
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{objects: make(map[string]fakeObject)}
}

func (f *fakeFetcher) add(key string, obj fakeObject) {
	f.objects[storeURL+key] = obj
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*port.FetchedObject, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	obj, ok := f.objects[url]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if obj.block {
		<-ctx.Done()
		return nil, &domain.UpstreamError{Err: ctx.Err()}
	}
	if obj.delay > 0 {
		select {
		case <-time.After(obj.delay):
		case <-ctx.Done():
			return nil, &domain.UpstreamError{Err: ctx.Err()}
		}
	}
	if obj.err != nil {
		return nil, obj.err
	}
	length := int64(len(obj.data))
	if obj.chunked {
		length = -1
	}
	return &port.FetchedObject{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentType:   "image/jpeg",
		ContentLength: length,
	}, nil
}

func testRef(key, originalName string) domain.ObjectReference {
	return domain.ObjectReference{
		TenantID:     uuid.New(),
		CollectionID: uuid.New(),
		Key:          key,
		ContentType:  "image/jpeg",
		OriginalName: originalName,
		Kind:         domain.AssetKindGuestPhoto,
	}
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}
