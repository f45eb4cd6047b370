package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"eventdrop/internal/csvexport"
	"eventdrop/internal/middleware"
	"eventdrop/internal/service"
)

// MediaHandler handles listing, bulk download and retrieval of stored media.
type MediaHandler struct {
	mediaService service.MediaService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(mediaService service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// List handles GET /api/v1/collections/:id/media
// @Summary List a collection's media
// @Tags media
// @Produce json
// @Param id path string true "Collection ID"
// @Success 200 {object} APIResponse{data=[]domain.MediaObject}
// @Security BearerAuth
// @Router /collections/{id}/media [get]
func (h *MediaHandler) List(c *gin.Context) {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant context")
		return
	}
	collectionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	items, err := h.mediaService.ListMedia(c.Request.Context(), tenantID, collectionID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, items)
}

// Export handles GET /api/v1/collections/:id/media/export
// @Summary Export a collection's media manifest as CSV
// @Tags media
// @Produce text/csv
// @Param id path string true "Collection ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /collections/{id}/media/export [get]
func (h *MediaHandler) Export(c *gin.Context) {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant context")
		return
	}
	collectionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	items, err := h.mediaService.ListMedia(c.Request.Context(), tenantID, collectionID)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := csvexport.BuildFilename("collection-" + collectionID.String())
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	if _, err := c.Writer.Write(csvexport.BOM); err != nil {
		return
	}
	w := csvexport.NewWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		return
	}
	if err := w.WriteMedia(items); err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("writing media manifest")
		return
	}
	w.Flush()
	if err := w.Error(); err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("flushing media manifest")
	}
}

// Archive handles GET /api/v1/collections/:id/archive
// @Summary Download a collection as a ZIP archive
// @Description Streams the archive. Files that cannot be retrieved are left out.
// @Tags media
// @Produce application/zip
// @Param id path string true "Collection ID"
// @Param ids query string false "Comma-separated media IDs to include"
// @Success 200 {file} binary
// @Failure 422 {object} APIResponse "No file could be retrieved"
// @Security BearerAuth
// @Router /collections/{id}/archive [get]
func (h *MediaHandler) Archive(c *gin.Context) {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant context")
		return
	}
	collectionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ids, err := parseIDList(c.QueryArray("ids"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	// Archives of large collections outlive the server's write timeout.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	w := &attachmentWriter{
		c:        c,
		filename: fmt.Sprintf("collection-%s.zip", collectionID),
	}
	result, err := h.mediaService.BuildArchive(c.Request.Context(), tenantID, collectionID, ids, w)
	if err != nil {
		if w.started {
			// Headers are gone; the client sees a truncated archive.
			zerolog.Ctx(c.Request.Context()).Error().Err(err).
				Str("collection_id", collectionID.String()).
				Msg("archive stream aborted")
			_ = c.Error(err)
			c.Abort()
			return
		}
		HandleError(c, err)
		return
	}

	zerolog.Ctx(c.Request.Context()).Info().
		Str("collection_id", collectionID.String()).
		Int("written", result.Written).
		Int("skipped", result.Skipped).
		Msg("archive sent")
}

// attachmentWriter defers the response headers until the first archive byte,
// so an archive that fails before producing output can still be answered
// with a JSON error.
type attachmentWriter struct {
	c        *gin.Context
	filename string
	started  bool
}

func (w *attachmentWriter) Write(p []byte) (int, error) {
	if !w.started {
		w.started = true
		h := w.c.Writer.Header()
		h.Set("Content-Type", "application/zip")
		h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", w.filename))
		h.Set("Cache-Control", "no-store")
		w.c.Status(http.StatusOK)
	}
	return w.c.Writer.Write(p)
}

func parseIDList(values []string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, fmt.Errorf("invalid media id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// DownloadURL handles GET /api/v1/media/:id/url
// @Summary Get a download URL
// @Description Returns the public URL when one is configured, otherwise a signed URL.
// @Tags media
// @Produce json
// @Param id path string true "Media ID"
// @Success 200 {object} APIResponse{data=domain.SignedAccessURL}
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /media/{id}/url [get]
func (h *MediaHandler) DownloadURL(c *gin.Context) {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant context")
		return
	}
	mediaID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	url, err := h.mediaService.GetDownloadURL(c.Request.Context(), tenantID, mediaID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, url)
}

// Image handles GET /api/v1/media/:id/image
// @Summary Proxy an image
// @Tags media
// @Produce image/jpeg,image/png,image/webp
// @Param id path string true "Media ID"
// @Success 200 {file} binary
// @Failure 404 {object} APIResponse
// @Failure 502 {object} APIResponse
// @Security BearerAuth
// @Router /media/{id}/image [get]
func (h *MediaHandler) Image(c *gin.Context) {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant context")
		return
	}
	mediaID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	img, err := h.mediaService.ServeImage(c.Request.Context(), tenantID, mediaID)
	if err != nil {
		HandleError(c, err)
		return
	}
	defer func() { _ = img.Body.Close() }()

	length := img.ContentLength
	if length <= 0 {
		length = -1
	}
	c.DataFromReader(http.StatusOK, length, img.ContentType, img.Body, map[string]string{
		"Cache-Control":          "private, max-age=300",
		"X-Content-Type-Options": "nosniff",
	})
}

// Delete handles DELETE /api/v1/media/:id
// @Summary Delete media
// @Tags media
// @Produce json
// @Param id path string true "Media ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /media/{id} [delete]
func (h *MediaHandler) Delete(c *gin.Context) {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant context")
		return
	}
	mediaID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.mediaService.DeleteMedia(ctx, tenantID, mediaID); err != nil {
		HandleError(c, err)
		return
	}

	event := zerolog.Ctx(ctx).Info().Str("media_id", mediaID.String())
	if userID, err := middleware.GetUserID(c); err == nil {
		event = event.Str("deleted_by", userID.String())
	}
	event.Msg("media deleted")
	RespondOK(c, gin.H{"message": "media deleted"})
}
