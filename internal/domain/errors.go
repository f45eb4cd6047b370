package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrMediaNotFound      = errors.New("media not found")
	ErrInvalidAssetKind   = errors.New("invalid asset kind")

	// Validation failures. These never reach storage I/O.
	ErrCollectionInactive  = errors.New("collection is not accepting uploads")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrEmptyFile           = errors.New("file is empty")

	ErrStorage      = errors.New("object storage failure")
	ErrUpstream     = errors.New("object store returned an unexpected response")
	ErrEmptyArchive = errors.New("none of the requested objects could be retrieved")
)

// IsValidationError reports whether err is a client-caused upload rejection.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrCollectionInactive) ||
		errors.Is(err, ErrUnsupportedFileType) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrEmptyFile)
}

// StorageError is returned by ObjectStorage implementations. StatusCode is the
// HTTP status reported by the store, or 0 when no response was received.
type StorageError struct {
	Op         string
	Key        string
	StatusCode int
	Err        error
}

func (e *StorageError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("storage %s %q: status %d: %v", e.Op, e.Key, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is matches ErrStorage so callers can test the taxonomy with errors.Is.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Temporary reports whether retrying the operation may succeed. Credential and
// configuration faults (4xx) are fatal.
func (e *StorageError) Temporary() bool {
	if isContextErr(e.Err) {
		return false
	}
	return e.StatusCode == 0 || e.StatusCode >= http.StatusInternalServerError ||
		e.StatusCode == http.StatusTooManyRequests
}

// UpstreamError is returned when fetching a signed URL yields a non-2xx status
// other than 404, or no response at all.
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

func (e *UpstreamError) Temporary() bool {
	if isContextErr(e.Err) {
		return false
	}
	return e.StatusCode == 0 || e.StatusCode >= http.StatusInternalServerError ||
		e.StatusCode == http.StatusTooManyRequests
}

// IsTemporary reports whether err carries a transient storage or upstream fault.
func IsTemporary(err error) bool {
	var t interface{ Temporary() bool }
	return errors.As(err, &t) && t.Temporary()
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
