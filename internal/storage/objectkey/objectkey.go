// Package objectkey maps a tenant, collection and generated file name to the
// key under which the bytes live in the object store.
package objectkey

import (
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Make returns "tenantID/collectionID/fileName". Each segment is path-escaped,
// so a "/" inside a segment cannot make two different inputs share a key.
// Uniqueness of fileName is the caller's responsibility.
func Make(tenantID, collectionID, fileName string) string {
	return url.PathEscape(tenantID) + "/" + url.PathEscape(collectionID) + "/" + url.PathEscape(fileName)
}

// GenerateFileName returns a collision-resistant file name made of a random
// UUID and the extension of originalName. fallbackExt is used when
// originalName has no usable extension.
func GenerateFileName(originalName, fallbackExt string) string {
	return uuid.New().String() + extension(originalName, fallbackExt)
}

func extension(originalName, fallbackExt string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(originalName, "\\", "/")))
	if ext == "." || len(ext) > 10 || strings.ContainsAny(ext, " %?#") {
		ext = ""
	}
	if ext == "" {
		return fallbackExt
	}
	return ext
}
