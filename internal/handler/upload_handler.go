package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"eventdrop/internal/domain"
	"eventdrop/internal/middleware"
	"eventdrop/internal/service"
)

// multipartOverhead is the allowance for multipart framing on top of a file's
// size ceiling.
const multipartOverhead = 1 << 20

// UploadHandler handles guest photo and branding asset uploads.
type UploadHandler struct {
	mediaService service.MediaService
	policies     map[domain.AssetKind]domain.AssetPolicy
}

// NewUploadHandler creates a new UploadHandler. policies bound how much of
// each upload is read into memory.
func NewUploadHandler(mediaService service.MediaService, policies map[domain.AssetKind]domain.AssetPolicy) *UploadHandler {
	return &UploadHandler{mediaService: mediaService, policies: policies}
}

// UploadGuestPhoto handles POST /api/v1/events/:collection_id/photos
// @Summary Upload a guest photo
// @Description Public endpoint reached through an event QR code
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param collection_id path string true "Collection ID"
// @Param file formData file true "Photo (JPEG, PNG, WebP, HEIC or GIF)"
// @Success 201 {object} APIResponse{data=domain.MediaObject}
// @Failure 400 {object} APIResponse
// @Failure 409 {object} APIResponse "Collection inactive"
// @Failure 413 {object} APIResponse
// @Router /events/{collection_id}/photos [post]
func (h *UploadHandler) UploadGuestPhoto(c *gin.Context) {
	collectionID, ok := parseIDParam(c, "collection_id")
	if !ok {
		return
	}

	fileName, contentType, body, ok := h.readFile(c, domain.AssetKindGuestPhoto)
	if !ok {
		return
	}

	obj, err := h.mediaService.UploadGuestPhoto(c.Request.Context(), service.UploadInput{
		CollectionID: collectionID,
		FileName:     fileName,
		ContentType:  contentType,
		Body:         body,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, obj)
}

// UploadAsset handles POST /api/v1/collections/:id/assets/:kind
// @Summary Upload a branding asset
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Collection ID"
// @Param kind path string true "Asset kind (logo, favicon, cover)"
// @Param file formData file true "Asset file"
// @Success 201 {object} APIResponse{data=domain.MediaObject}
// @Failure 400 {object} APIResponse
// @Failure 409 {object} APIResponse "Collection inactive"
// @Failure 413 {object} APIResponse
// @Security BearerAuth
// @Router /collections/{id}/assets/{kind} [post]
func (h *UploadHandler) UploadAsset(c *gin.Context) {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant context")
		return
	}
	collectionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	kind := domain.AssetKind(c.Param("kind"))
	if _, branding := domain.BrandingKinds[kind]; !branding {
		HandleError(c, domain.ErrInvalidAssetKind)
		return
	}

	fileName, contentType, body, ok := h.readFile(c, kind)
	if !ok {
		return
	}

	obj, err := h.mediaService.UploadAsset(c.Request.Context(), service.UploadInput{
		TenantID:     tenantID,
		CollectionID: collectionID,
		Kind:         kind,
		FileName:     fileName,
		ContentType:  contentType,
		Body:         body,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, obj)
}

// readFile reads the "file" form field, keeping at most one byte more than the
// kind's ceiling so oversized files still fail size validation. The content
// type is sniffed from the bytes; the declared type is only used when the
// bytes are not recognized.
func (h *UploadHandler) readFile(c *gin.Context, kind domain.AssetKind) (fileName, contentType string, body []byte, ok bool) {
	maxBytes := h.policies[kind].MaxBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			HandleError(c, domain.ErrFileTooLarge)
			return "", "", nil, false
		}
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return "", "", nil, false
	}
	defer func() { _ = file.Close() }()

	body, err = io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FILE", "could not read uploaded file")
		return "", "", nil, false
	}

	return header.Filename, detectContentType(body, header.Header.Get("Content-Type")), body, true
}

func detectContentType(body []byte, declared string) string {
	if len(body) == 0 {
		return declared
	}
	detected := mimetype.Detect(body)
	if detected.Is("application/octet-stream") && declared != "" {
		return declared
	}
	return detected.String()
}
