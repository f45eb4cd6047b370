package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eventdrop/internal/domain"
	"eventdrop/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// jpegContent returns bytes starting with the JPEG magic number.
func jpegContent(size int) []byte {
	b := make([]byte, size)
	copy(b, []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00})
	return b
}

// pngContent returns bytes starting with the PNG magic number.
func pngContent(size int) []byte {
	b := make([]byte, size)
	copy(b, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	return b
}

func newMultipartRequest(method, target, filename, contentType string, content []byte) *http.Request {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, _ := writer.CreatePart(h)
	_, _ = part.Write(content)
	_ = writer.Close()

	req, _ := http.NewRequest(method, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// withTenant stands in for the auth middleware.
func withTenant(tenantID uuid.UUID, role domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyTenantID, tenantID)
		c.Set(middleware.ContextKeyUserID, uuid.New())
		c.Set(middleware.ContextKeyRole, string(role))
		c.Next()
	}
}

func testPolicies() map[domain.AssetKind]domain.AssetPolicy {
	return map[domain.AssetKind]domain.AssetPolicy{
		domain.AssetKindGuestPhoto: {AllowedContentTypes: domain.GuestPhotoContentTypes, MaxBytes: 4096},
		domain.AssetKindLogo:       {AllowedContentTypes: domain.LogoContentTypes, MaxBytes: 2048},
		domain.AssetKindFavicon:    {AllowedContentTypes: domain.FaviconContentTypes, MaxBytes: 1024},
		domain.AssetKindCover:      {AllowedContentTypes: domain.CoverContentTypes, MaxBytes: 4096},
	}
}
