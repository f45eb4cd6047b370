package local_test

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventdrop/internal/config"
	"eventdrop/internal/domain"
	"eventdrop/internal/storage/local"
)

func newStorage(t *testing.T) *local.Storage {
	t.Helper()
	s, err := local.NewStorage(&config.LocalConfig{
		Root:          t.TempDir(),
		BaseURL:       "http://media.test/",
		SigningSecret: "test-secret",
	}, &config.StorageConfig{}, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func tokenOf(t *testing.T, signedURL string) string {
	t.Helper()
	u, err := url.Parse(signedURL)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestStorage_PutAndOpen(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "t/c/photo.jpg", []byte("jpeg-bytes"), "image/jpeg"))

	signed, err := s.SignedGetURL(ctx, "t/c/photo.jpg", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed.URL, "http://media.test/objects/t/c/photo.jpg?token="))

	f, contentType, err := s.Open("t/c/photo.jpg", tokenOf(t, signed.URL))
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, "image/jpeg", contentType)
}

func TestStorage_PutIsIdempotent(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "t/c/a.png", []byte("same"), "image/png"))
	require.NoError(t, s.Put(ctx, "t/c/a.png", []byte("same"), "image/png"))

	signed, err := s.SignedGetURL(ctx, "t/c/a.png", time.Minute)
	require.NoError(t, err)
	f, _, err := s.Open("t/c/a.png", tokenOf(t, signed.URL))
	require.NoError(t, err)
	defer f.Close()
	data, _ := io.ReadAll(f)
	assert.Equal(t, "same", string(data))
}

func TestStorage_DeleteTwice(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "t/c/a.png", []byte("x"), "image/png"))
	assert.NoError(t, s.Delete(ctx, "t/c/a.png"))
	assert.NoError(t, s.Delete(ctx, "t/c/a.png"))
	assert.NoError(t, s.Delete(ctx, "t/c/never-existed.png"))
}

func TestStorage_SignedURLForMissingObject(t *testing.T) {
	s := newStorage(t)

	signed, err := s.SignedGetURL(context.Background(), "t/c/missing.jpg", time.Minute)
	require.NoError(t, err)

	_, _, err = s.Open("t/c/missing.jpg", tokenOf(t, signed.URL))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStorage_RejectsBadTokens(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "t/c/a.jpg", []byte("x"), "image/jpeg"))
	require.NoError(t, s.Put(ctx, "t/c/b.jpg", []byte("y"), "image/jpeg"))

	signedA, err := s.SignedGetURL(ctx, "t/c/a.jpg", time.Minute)
	require.NoError(t, err)

	_, _, err = s.Open("t/c/b.jpg", tokenOf(t, signedA.URL))
	assert.ErrorIs(t, err, local.ErrInvalidToken, "token for another key")

	_, _, err = s.Open("t/c/a.jpg", "not-a-token")
	assert.ErrorIs(t, err, local.ErrInvalidToken)

	expired, err := s.SignedGetURL(ctx, "t/c/a.jpg", -time.Minute)
	require.NoError(t, err)
	_, _, err = s.Open("t/c/a.jpg", tokenOf(t, expired.URL))
	assert.ErrorIs(t, err, local.ErrInvalidToken, "expired token")

	other, err := local.NewStorage(&config.LocalConfig{Root: t.TempDir(), SigningSecret: "other"}, &config.StorageConfig{}, zerolog.Nop())
	require.NoError(t, err)
	forged, err := other.SignedGetURL(ctx, "t/c/a.jpg", time.Minute)
	require.NoError(t, err)
	_, _, err = s.Open("t/c/a.jpg", tokenOf(t, forged.URL))
	assert.ErrorIs(t, err, local.ErrInvalidToken, "token signed with another secret")
}

func TestStorage_RejectsTraversalKeys(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	for _, key := range []string{"../escape.jpg", "/abs.jpg", "t/../../x.jpg", ""} {
		err := s.Put(ctx, key, []byte("x"), "image/jpeg")
		assert.ErrorIs(t, err, domain.ErrStorage, key)
	}
}

func TestStorage_SignedURLExpiry(t *testing.T) {
	s := newStorage(t)
	before := time.Now()

	signed, err := s.SignedGetURL(context.Background(), "t/c/a.jpg", 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, signed.ExpiresAt.Before(before.Add(15*time.Minute)))
	assert.True(t, signed.ExpiresAt.Before(time.Now().Add(15*time.Minute+time.Second)))
}

func TestStorage_PublicURL(t *testing.T) {
	s, err := local.NewStorage(&config.LocalConfig{Root: t.TempDir(), SigningSecret: "x"},
		&config.StorageConfig{PublicBaseURL: "https://cdn.test/"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/t/c/a.jpg", s.PublicURL("t/c/a.jpg"))
	assert.Equal(t, "", newStorage(t).PublicURL("t/c/a.jpg"))
}
