package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"eventdrop/internal/domain"
	"eventdrop/internal/handler"
	"eventdrop/internal/middleware"
	"eventdrop/internal/service"
)

// Setup configures the Gin engine with all routes and middleware. localH is
// nil unless the local storage provider is in use.
func Setup(
	log zerolog.Logger,
	corsOrigins []string,
	authSvc service.AuthService,
	uploadH *handler.UploadHandler,
	mediaH *handler.MediaHandler,
	statsH *handler.StatsHandler,
	healthH *handler.HealthHandler,
	localH *handler.LocalObjectHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(corsOrigins))

	// Health checks and metrics
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Signed object URLs of the local storage provider
	if localH != nil {
		r.GET("/objects/*key", localH.Serve)
		r.HEAD("/objects/*key", localH.Serve)
	}

	v1 := r.Group("/api/v1")

	// Public guest uploads, reached through an event QR code
	v1.POST("/events/:collection_id/photos", uploadH.UploadGuestPhoto)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))
	manage := middleware.RequireRole(domain.RoleAdmin, domain.RoleOrganizer)

	collections := protected.Group("/collections/:id")
	collections.POST("/assets/:kind", manage, uploadH.UploadAsset)
	collections.GET("/media", mediaH.List)
	collections.GET("/media/export", mediaH.Export)
	collections.GET("/stats", statsH.GetStats)
	collections.GET("/archive", mediaH.Archive)

	media := protected.Group("/media/:id")
	media.GET("/url", mediaH.DownloadURL)
	media.GET("/image", mediaH.Image)
	media.DELETE("", manage, mediaH.Delete)

	return r
}
