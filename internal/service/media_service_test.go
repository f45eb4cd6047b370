package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"eventdrop/internal/domain"
	"eventdrop/internal/service"
	"eventdrop/mocks"
)

type mediaFixture struct {
	collections *mocks.MockCollectionRepo
	media       *mocks.MockMediaObjectRepo
	pipeline    *mocks.MockUploadPipeline
	archives    *mocks.MockArchiveBuilder
	proxy       *mocks.MockImageProxy
	storage     *mocks.MockObjectStorage
	svc         service.MediaService
}

func newMediaFixture() *mediaFixture {
	f := &mediaFixture{
		collections: new(mocks.MockCollectionRepo),
		media:       new(mocks.MockMediaObjectRepo),
		pipeline:    new(mocks.MockUploadPipeline),
		archives:    new(mocks.MockArchiveBuilder),
		proxy:       new(mocks.MockImageProxy),
		storage:     new(mocks.MockObjectStorage),
	}
	f.svc = service.NewMediaService(f.collections, f.media, f.pipeline, f.archives, f.proxy, f.storage,
		service.MediaServiceConfig{
			SignedURLTTL:  15 * time.Minute,
			RetryAttempts: 3,
			RetryInterval: time.Millisecond,
		}, nopLogger())
	return f
}

func testObjectRef(tenantID, collectionID uuid.UUID) *domain.ObjectReference {
	return &domain.ObjectReference{
		TenantID:     tenantID,
		CollectionID: collectionID,
		Key:          tenantID.String() + "/" + collectionID.String() + "/f.jpg",
		ContentType:  "image/jpeg",
		SizeBytes:    4,
		OriginalName: "party.jpg",
		Kind:         domain.AssetKindGuestPhoto,
	}
}

func TestMediaService_UploadGuestPhoto_ResolvesTenant(t *testing.T) {
	f := newMediaFixture()
	tenantID, collectionID := uuid.New(), uuid.New()
	ref := testObjectRef(tenantID, collectionID)

	f.collections.On("GetByID", mock.Anything, collectionID).
		Return(&domain.Collection{ID: collectionID, TenantID: tenantID, IsActive: true}, nil)
	f.pipeline.On("Ingest", mock.Anything, mock.MatchedBy(func(req service.IngestRequest) bool {
		return req.TenantID == tenantID && req.Kind == domain.AssetKindGuestPhoto
	})).Return(ref, nil)
	f.media.On("Create", mock.Anything, mock.AnythingOfType("*domain.MediaObject")).Return(nil)

	obj, err := f.svc.UploadGuestPhoto(context.Background(), service.UploadInput{
		CollectionID: collectionID,
		FileName:     "party.jpg",
		ContentType:  "image/jpeg",
		Body:         []byte("jpeg"),
	})

	require.NoError(t, err)
	assert.Equal(t, tenantID, obj.TenantID)
	assert.Equal(t, ref.Key, obj.StorageKey)
	assert.Equal(t, "party.jpg", obj.OriginalName)
	f.pipeline.AssertExpectations(t)
	f.media.AssertExpectations(t)
}

func TestMediaService_UploadGuestPhoto_UnknownCollection(t *testing.T) {
	f := newMediaFixture()
	f.collections.On("GetByID", mock.Anything, mock.Anything).Return(nil, domain.ErrCollectionNotFound)

	_, err := f.svc.UploadGuestPhoto(context.Background(), service.UploadInput{CollectionID: uuid.New()})

	assert.ErrorIs(t, err, domain.ErrCollectionInactive)
	f.pipeline.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}

func TestMediaService_UploadAsset_RejectsGuestKind(t *testing.T) {
	f := newMediaFixture()

	_, err := f.svc.UploadAsset(context.Background(), service.UploadInput{
		TenantID:     uuid.New(),
		CollectionID: uuid.New(),
		Kind:         domain.AssetKindGuestPhoto,
	})

	assert.ErrorIs(t, err, domain.ErrInvalidAssetKind)
}

func TestMediaService_UploadAsset_RetriesTransientStorageFailure(t *testing.T) {
	f := newMediaFixture()
	tenantID, collectionID := uuid.New(), uuid.New()
	ref := testObjectRef(tenantID, collectionID)
	ref.Kind = domain.AssetKindLogo

	transient := &domain.StorageError{Op: "put", StatusCode: 503, Err: errors.New("slow down")}
	f.pipeline.On("Ingest", mock.Anything, mock.Anything).Return(nil, transient).Twice()
	f.pipeline.On("Ingest", mock.Anything, mock.Anything).Return(ref, nil).Once()
	f.media.On("Create", mock.Anything, mock.Anything).Return(nil)

	obj, err := f.svc.UploadAsset(context.Background(), service.UploadInput{
		TenantID:     tenantID,
		CollectionID: collectionID,
		Kind:         domain.AssetKindLogo,
		FileName:     "logo.png",
		ContentType:  "image/png",
		Body:         []byte("png"),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.AssetKindLogo, obj.Kind)
	f.pipeline.AssertNumberOfCalls(t, "Ingest", 3)
}

func TestMediaService_UploadAsset_GivesUpAfterRetryBound(t *testing.T) {
	f := newMediaFixture()
	tenantID, collectionID := uuid.New(), uuid.New()
	transient := &domain.StorageError{Op: "put", Err: errors.New("connection reset")}
	f.pipeline.On("Ingest", mock.Anything, mock.Anything).Return(nil, transient)
	prefix := tenantID.String() + "/" + collectionID.String() + "/"
	f.storage.On("Delete", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})).Return(nil).Once()

	_, err := f.svc.UploadAsset(context.Background(), service.UploadInput{
		TenantID: tenantID, CollectionID: collectionID, Kind: domain.AssetKindCover,
	})

	assert.ErrorIs(t, err, domain.ErrStorage)
	f.pipeline.AssertNumberOfCalls(t, "Ingest", 3)
	f.media.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.storage.AssertExpectations(t)
}

func TestMediaService_UploadAsset_RetriesReuseStorageKey(t *testing.T) {
	tenantID, collectionID := uuid.New(), uuid.New()
	collections := new(mocks.MockCollectionRepo)
	collections.On("GetByID", mock.Anything, collectionID).
		Return(&domain.Collection{ID: collectionID, TenantID: tenantID, IsActive: true}, nil)
	storage := new(mocks.MockObjectStorage)
	media := new(mocks.MockMediaObjectRepo)

	validator := service.NewIngestValidator(collections, service.PoliciesFromConfig(testUploadConfig()))
	pipeline := service.NewUploadPipeline(validator, storage, nopLogger())
	svc := service.NewMediaService(collections, media, pipeline, nil, nil, storage,
		service.MediaServiceConfig{RetryAttempts: 3, RetryInterval: time.Millisecond}, nopLogger())

	var keys []string
	record := func(args mock.Arguments) { keys = append(keys, args.String(1)) }
	storage.On("Put", mock.Anything, mock.Anything, mock.Anything, "image/png").
		Return(&domain.StorageError{Op: "put", StatusCode: 503, Err: errors.New("slow down")}).Run(record).Once()
	storage.On("Put", mock.Anything, mock.Anything, mock.Anything, "image/png").
		Return(nil).Run(record).Once()
	media.On("Create", mock.Anything, mock.AnythingOfType("*domain.MediaObject")).Return(nil)

	obj, err := svc.UploadAsset(context.Background(), service.UploadInput{
		TenantID:     tenantID,
		CollectionID: collectionID,
		Kind:         domain.AssetKindLogo,
		FileName:     "logo.png",
		ContentType:  "image/png",
		Body:         []byte("png"),
	})

	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, keys[0], keys[1])
	assert.Equal(t, keys[1], obj.StorageKey)
	storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestMediaService_UploadAsset_DoesNotRetryFatalFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"validation", domain.ErrFileTooLarge},
		{"credentials", &domain.StorageError{Op: "put", StatusCode: 403, Err: errors.New("access denied")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMediaFixture()
			f.pipeline.On("Ingest", mock.Anything, mock.Anything).Return(nil, tt.err)

			_, err := f.svc.UploadAsset(context.Background(), service.UploadInput{
				TenantID: uuid.New(), CollectionID: uuid.New(), Kind: domain.AssetKindFavicon,
			})

			assert.ErrorIs(t, err, tt.err)
			f.pipeline.AssertNumberOfCalls(t, "Ingest", 1)
		})
	}
}

func TestMediaService_Upload_RecordFailureDeletesObject(t *testing.T) {
	f := newMediaFixture()
	tenantID, collectionID := uuid.New(), uuid.New()
	ref := testObjectRef(tenantID, collectionID)
	ref.Kind = domain.AssetKindCover

	f.pipeline.On("Ingest", mock.Anything, mock.Anything).Return(ref, nil)
	f.media.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
	f.storage.On("Delete", mock.Anything, ref.Key).Return(nil)

	_, err := f.svc.UploadAsset(context.Background(), service.UploadInput{
		TenantID: tenantID, CollectionID: collectionID, Kind: domain.AssetKindCover,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	f.storage.AssertCalled(t, "Delete", mock.Anything, ref.Key)
}

func TestMediaService_ListMedia(t *testing.T) {
	f := newMediaFixture()
	tenantID, collectionID := uuid.New(), uuid.New()
	items := []domain.MediaObject{{ID: uuid.New()}, {ID: uuid.New()}}
	f.media.On("ListByCollection", mock.Anything, tenantID, collectionID, []uuid.UUID(nil)).Return(items, nil)

	got, err := f.svc.ListMedia(context.Background(), tenantID, collectionID)

	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMediaService_BuildArchive(t *testing.T) {
	f := newMediaFixture()
	tenantID, collectionID := uuid.New(), uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	items := []domain.MediaObject{
		{ID: ids[0], TenantID: tenantID, CollectionID: collectionID, StorageKey: "k1", OriginalName: "a.jpg"},
		{ID: ids[1], TenantID: tenantID, CollectionID: collectionID, StorageKey: "k2", OriginalName: "b.jpg"},
	}
	var buf bytes.Buffer

	f.media.On("ListByCollection", mock.Anything, tenantID, collectionID, ids).Return(items, nil)
	f.archives.On("Build", mock.Anything, mock.MatchedBy(func(job service.ArchiveJob) bool {
		return len(job.Objects) == 2 && job.Objects[0].Key == "k1" && job.Objects[1].Key == "k2"
	}), &buf).Return(&service.ArchiveResult{Written: 2}, nil)

	result, err := f.svc.BuildArchive(context.Background(), tenantID, collectionID, ids, &buf)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Written)
	f.archives.AssertExpectations(t)
}

func TestMediaService_BuildArchive_NothingListed(t *testing.T) {
	f := newMediaFixture()
	f.media.On("ListByCollection", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.MediaObject{}, nil)

	_, err := f.svc.BuildArchive(context.Background(), uuid.New(), uuid.New(), nil, io.Discard)

	assert.ErrorIs(t, err, domain.ErrEmptyArchive)
	f.archives.AssertNotCalled(t, "Build", mock.Anything, mock.Anything, mock.Anything)
}

func TestMediaService_ServeImage_RetriesOnceOnTransientUpstream(t *testing.T) {
	f := newMediaFixture()
	tenantID, mediaID := uuid.New(), uuid.New()
	f.media.On("GetByID", mock.Anything, tenantID, mediaID).Return(&domain.MediaObject{ID: mediaID, StorageKey: "k"}, nil)
	f.proxy.On("Serve", mock.Anything, "k").Return(nil, &domain.UpstreamError{StatusCode: 502, Err: errors.New("bad gateway")}).Once()
	f.proxy.On("Serve", mock.Anything, "k").
		Return(&service.ProxiedImage{Body: io.NopCloser(strings.NewReader("img")), ContentType: "image/jpeg"}, nil).Once()

	img, err := f.svc.ServeImage(context.Background(), tenantID, mediaID)

	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.ContentType)
	f.proxy.AssertNumberOfCalls(t, "Serve", 2)
}

func TestMediaService_ServeImage_StopsAfterOneRetry(t *testing.T) {
	f := newMediaFixture()
	tenantID, mediaID := uuid.New(), uuid.New()
	f.media.On("GetByID", mock.Anything, tenantID, mediaID).Return(&domain.MediaObject{ID: mediaID, StorageKey: "k"}, nil)
	f.proxy.On("Serve", mock.Anything, "k").Return(nil, &domain.UpstreamError{StatusCode: 503, Err: errors.New("unavailable")})

	_, err := f.svc.ServeImage(context.Background(), tenantID, mediaID)

	assert.ErrorIs(t, err, domain.ErrUpstream)
	f.proxy.AssertNumberOfCalls(t, "Serve", 2)
}

func TestMediaService_ServeImage_NotFoundIsNotRetried(t *testing.T) {
	f := newMediaFixture()
	tenantID, mediaID := uuid.New(), uuid.New()
	f.media.On("GetByID", mock.Anything, tenantID, mediaID).Return(&domain.MediaObject{ID: mediaID, StorageKey: "k"}, nil)
	f.proxy.On("Serve", mock.Anything, "k").Return(nil, domain.ErrNotFound)

	_, err := f.svc.ServeImage(context.Background(), tenantID, mediaID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.proxy.AssertNumberOfCalls(t, "Serve", 1)
}

func TestMediaService_ServeImage_OtherTenant(t *testing.T) {
	f := newMediaFixture()
	f.media.On("GetByID", mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrMediaNotFound)

	_, err := f.svc.ServeImage(context.Background(), uuid.New(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrMediaNotFound)
	f.proxy.AssertNotCalled(t, "Serve", mock.Anything, mock.Anything)
}

func TestMediaService_GetDownloadURL(t *testing.T) {
	t.Run("public url", func(t *testing.T) {
		f := newMediaFixture()
		tenantID, mediaID := uuid.New(), uuid.New()
		f.media.On("GetByID", mock.Anything, tenantID, mediaID).Return(&domain.MediaObject{StorageKey: "k"}, nil)
		f.storage.On("PublicURL", "k").Return("https://cdn.test/k")

		u, err := f.svc.GetDownloadURL(context.Background(), tenantID, mediaID)

		require.NoError(t, err)
		assert.Equal(t, "https://cdn.test/k", u.URL)
		assert.True(t, u.ExpiresAt.IsZero())
		f.storage.AssertNotCalled(t, "SignedGetURL", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("signed url", func(t *testing.T) {
		f := newMediaFixture()
		tenantID, mediaID := uuid.New(), uuid.New()
		expires := time.Now().Add(15 * time.Minute)
		f.media.On("GetByID", mock.Anything, tenantID, mediaID).Return(&domain.MediaObject{StorageKey: "k"}, nil)
		f.storage.On("PublicURL", "k").Return("")
		f.storage.On("SignedGetURL", mock.Anything, "k", 15*time.Minute).
			Return(&domain.SignedAccessURL{URL: "https://store.test/k?sig", ExpiresAt: expires}, nil)

		u, err := f.svc.GetDownloadURL(context.Background(), tenantID, mediaID)

		require.NoError(t, err)
		assert.Equal(t, "https://store.test/k?sig", u.URL)
		assert.Equal(t, expires, u.ExpiresAt)
	})
}

func TestMediaService_DeleteMedia(t *testing.T) {
	f := newMediaFixture()
	tenantID, mediaID := uuid.New(), uuid.New()
	var order []string
	f.media.On("GetByID", mock.Anything, tenantID, mediaID).Return(&domain.MediaObject{ID: mediaID, StorageKey: "k"}, nil)
	f.media.On("Delete", mock.Anything, tenantID, mediaID).Return(nil).
		Run(func(mock.Arguments) { order = append(order, "record") })
	f.storage.On("Delete", mock.Anything, "k").Return(nil).
		Run(func(mock.Arguments) { order = append(order, "object") })

	require.NoError(t, f.svc.DeleteMedia(context.Background(), tenantID, mediaID))
	assert.Equal(t, []string{"record", "object"}, order)
	f.storage.AssertExpectations(t)
	f.media.AssertExpectations(t)
}

func TestMediaService_DeleteMedia_RecordFailureKeepsObject(t *testing.T) {
	f := newMediaFixture()
	tenantID, mediaID := uuid.New(), uuid.New()
	f.media.On("GetByID", mock.Anything, tenantID, mediaID).Return(&domain.MediaObject{ID: mediaID, StorageKey: "k"}, nil)
	f.media.On("Delete", mock.Anything, tenantID, mediaID).Return(errors.New("db down"))

	err := f.svc.DeleteMedia(context.Background(), tenantID, mediaID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	f.storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestMediaService_DeleteMedia_StorageFailureAfterRecordRemoved(t *testing.T) {
	f := newMediaFixture()
	tenantID, mediaID := uuid.New(), uuid.New()
	f.media.On("GetByID", mock.Anything, tenantID, mediaID).Return(&domain.MediaObject{ID: mediaID, StorageKey: "k"}, nil)
	f.media.On("Delete", mock.Anything, tenantID, mediaID).Return(nil)
	f.storage.On("Delete", mock.Anything, "k").Return(&domain.StorageError{Op: "delete", Key: "k", StatusCode: 500, Err: errors.New("boom")})

	err := f.svc.DeleteMedia(context.Background(), tenantID, mediaID)

	assert.NoError(t, err)
	f.media.AssertExpectations(t)
	f.storage.AssertExpectations(t)
}
