package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"eventdrop/internal/config"
	"eventdrop/internal/domain"
	"eventdrop/internal/handler"
	"eventdrop/internal/router"
	"eventdrop/internal/service"
	"eventdrop/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T) (*gin.Engine, *mocks.MockMediaService, service.AuthService) {
	t.Helper()
	authSvc := service.NewAuthService(config.AuthConfig{Secret: "router-test-secret", Issuer: "eventdrop"})
	svc := new(mocks.MockMediaService)
	storage := new(mocks.MockObjectStorage)
	storage.On("Ping", mock.Anything).Return(nil).Maybe()

	r := router.Setup(
		zerolog.Nop(),
		[]string{"http://localhost:3000"},
		authSvc,
		handler.NewUploadHandler(svc, service.PoliciesFromConfig(&config.UploadConfig{GuestPhotoMaxMB: 10, LogoMaxKB: 512, FaviconMaxKB: 100, CoverMaxMB: 5})),
		handler.NewMediaHandler(svc),
		handler.NewStatsHandler(service.NewStatsService(new(mocks.MockStatsRepository))),
		handler.NewHealthHandler(nopPinger{}, storage),
		nil,
	)
	return r, svc, authSvc
}

func bearer(t *testing.T, authSvc service.AuthService, tenantID uuid.UUID, role domain.UserRole) string {
	t.Helper()
	token, err := authSvc.IssueToken(tenantID, uuid.New(), role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouter_PublicEndpoints(t *testing.T) {
	r, _, _ := setup(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, http.NoBody)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"), path)
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	r, svc, _ := setup(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/collections/"+uuid.New().String()+"/media", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "ListMedia", mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_ListWithToken(t *testing.T) {
	r, svc, authSvc := setup(t)
	tenantID, collectionID := uuid.New(), uuid.New()
	svc.On("ListMedia", mock.Anything, tenantID, collectionID).Return([]domain.MediaObject{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/collections/"+collectionID.String()+"/media", http.NoBody)
	req.Header.Set("Authorization", bearer(t, authSvc, tenantID, domain.RoleViewer))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestRouter_DeleteRequiresManageRole(t *testing.T) {
	r, svc, authSvc := setup(t)
	tenantID, mediaID := uuid.New(), uuid.New()
	svc.On("DeleteMedia", mock.Anything, tenantID, mediaID).Return(nil)

	tests := []struct {
		role         domain.UserRole
		expectedCode int
	}{
		{domain.RoleViewer, http.StatusForbidden},
		{domain.RoleOrganizer, http.StatusOK},
		{domain.RoleAdmin, http.StatusOK},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodDelete, "/api/v1/media/"+mediaID.String(), http.NoBody)
		req.Header.Set("Authorization", bearer(t, authSvc, tenantID, tt.role))
		r.ServeHTTP(w, req)
		assert.Equal(t, tt.expectedCode, w.Code, tt.role)
	}
	svc.AssertNumberOfCalls(t, "DeleteMedia", 2)
}

func TestRouter_LocalObjectsDisabledForRemoteStorage(t *testing.T) {
	r, _, _ := setup(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/objects/t/c/a.jpg?token=x", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
