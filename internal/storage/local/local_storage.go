// Package local implements port.ObjectStorage on the filesystem. Signed URLs
// carry a short-lived HS256 token naming the object key; they are served by
// the handler package's LocalObjectHandler.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"eventdrop/internal/config"
	"eventdrop/internal/domain"
	"eventdrop/internal/port"
)

const (
	contentTypeSuffix = ".content-type"
	tokenAudience     = "eventdrop-object"
)

var (
	// ErrInvalidToken is returned by Open for expired, forged or mismatched tokens.
	ErrInvalidToken = errors.New("invalid or expired object token")
	errInvalidKey   = errors.New("invalid object key")
)

// Storage stores objects under a root directory.
type Storage struct {
	root          string
	baseURL       string
	publicBaseURL string
	secret        []byte
	log           zerolog.Logger
}

var _ port.ObjectStorage = (*Storage)(nil)

type objectClaims struct {
	jwt.RegisteredClaims
}

// NewStorage creates the root directory if needed and returns the store.
func NewStorage(cfg *config.LocalConfig, storageCfg *config.StorageConfig, log zerolog.Logger) (*Storage, error) {
	root := strings.TrimSpace(cfg.Root)
	if root == "" {
		return nil, errors.New("local storage root is not configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating local storage root: %w", err)
	}

	s := &Storage{
		root:          root,
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		publicBaseURL: strings.TrimSuffix(storageCfg.PublicBaseURL, "/"),
		secret:        []byte(cfg.SigningSecret),
		log:           log.With().Str("component", "local-storage").Logger(),
	}
	s.log.Info().Str("root", root).Str("base_url", s.baseURL).Msg("local storage initialized")
	return s, nil
}

func (s *Storage) path(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", errInvalidKey
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || strings.HasSuffix(clean, contentTypeSuffix) {
		return "", errInvalidKey
	}
	return filepath.Join(s.root, clean), nil
}

// Put writes body to a temporary file and renames it over the destination, so
// readers never observe a partial object.
func (s *Storage) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return &domain.StorageError{Op: "put", Key: key, Err: err}
	}
	fullPath, err := s.path(key)
	if err != nil {
		return &domain.StorageError{Op: "put", Key: key, StatusCode: 400, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return &domain.StorageError{Op: "put", Key: key, Err: err}
	}
	if err := writeAtomic(fullPath, body); err != nil {
		return &domain.StorageError{Op: "put", Key: key, Err: err}
	}
	if err := writeAtomic(fullPath+contentTypeSuffix, []byte(contentType)); err != nil {
		return &domain.StorageError{Op: "put", Key: key, Err: err}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return &domain.StorageError{Op: "delete", Key: key, Err: err}
	}
	fullPath, err := s.path(key)
	if err != nil {
		return &domain.StorageError{Op: "delete", Key: key, StatusCode: 400, Err: err}
	}
	for _, p := range []string{fullPath, fullPath + contentTypeSuffix} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &domain.StorageError{Op: "delete", Key: key, Err: err}
		}
	}
	return nil
}

func (s *Storage) SignedGetURL(ctx context.Context, key string, ttl time.Duration) (*domain.SignedAccessURL, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.StorageError{Op: "presign", Key: key, Err: err}
	}
	if _, err := s.path(key); err != nil {
		return nil, &domain.StorageError{Op: "presign", Key: key, StatusCode: 400, Err: err}
	}

	issuedAt := time.Now()
	expiresAt := issuedAt.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, objectClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   key,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, &domain.StorageError{Op: "presign", Key: key, Err: err}
	}

	return &domain.SignedAccessURL{
		URL:       s.baseURL + "/objects/" + key + "?token=" + signed,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Storage) PublicURL(key string) string {
	if s.publicBaseURL == "" {
		return ""
	}
	return s.publicBaseURL + "/" + key
}

func (s *Storage) Ping(_ context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return &domain.StorageError{Op: "ping", Err: err}
	}
	if !info.IsDir() {
		return &domain.StorageError{Op: "ping", Err: fmt.Errorf("%s is not a directory", s.root)}
	}
	return nil
}

// Open verifies token against key and opens the object for reading. A missing
// object is reported as domain.ErrNotFound.
func (s *Storage) Open(key, token string) (*os.File, string, error) {
	var claims objectClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || claims.Subject != key {
		return nil, "", ErrInvalidToken
	}

	fullPath, err := s.path(key)
	if err != nil {
		return nil, "", ErrInvalidToken
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", fmt.Errorf("opening object: %w", err)
	}

	contentType, err := os.ReadFile(fullPath + contentTypeSuffix)
	if err != nil || len(contentType) == 0 {
		mt, detectErr := mimetype.DetectFile(fullPath)
		if detectErr != nil {
			return f, "application/octet-stream", nil
		}
		return f, mt.String(), nil
	}
	return f, string(contentType), nil
}
