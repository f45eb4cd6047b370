package handler

import (
	"errors"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"eventdrop/internal/domain"
	"eventdrop/internal/storage/local"
)

// ObjectOpener opens a locally stored object after checking its access token.
type ObjectOpener interface {
	Open(key, token string) (*os.File, string, error)
}

// LocalObjectHandler serves the signed URLs issued by the local storage provider.
type LocalObjectHandler struct {
	objects ObjectOpener
}

// NewLocalObjectHandler creates a new LocalObjectHandler.
func NewLocalObjectHandler(objects ObjectOpener) *LocalObjectHandler {
	return &LocalObjectHandler{objects: objects}
}

// Serve handles GET /objects/*key
func (h *LocalObjectHandler) Serve(c *gin.Context) {
	// Keys are matched in their escaped form, which is what the token signs.
	key := strings.TrimPrefix(c.Request.URL.EscapedPath(), "/objects/")

	f, contentType, err := h.objects.Open(key, c.Query("token"))
	if err != nil {
		switch {
		case errors.Is(err, local.ErrInvalidToken):
			RespondError(c, http.StatusForbidden, "FORBIDDEN", "invalid or expired object token")
		case errors.Is(err, domain.ErrNotFound):
			RespondError(c, http.StatusNotFound, "NOT_FOUND", "object not found")
		default:
			HandleError(c, err)
		}
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "private, no-store")
	http.ServeContent(c.Writer, c.Request, path.Base(key), info.ModTime(), f)
}
