package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventdrop/internal/middleware"
	"eventdrop/internal/service"
)

// StatsHandler handles stats endpoints.
type StatsHandler struct {
	statsService service.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetStats handles GET /api/v1/collections/:id/stats
// @Summary Get collection statistics
// @Description Media count and stored bytes of a collection, split by guest photos and branding assets.
// @Tags stats
// @Produce json
// @Param id path string true "Collection ID"
// @Success 200 {object} APIResponse{data=domain.CollectionStats}
// @Failure 401 {object} APIResponse
// @Security BearerAuth
// @Router /collections/{id}/stats [get]
func (h *StatsHandler) GetStats(c *gin.Context) {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant context")
		return
	}
	collectionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	stats, err := h.statsService.GetCollectionStats(c.Request.Context(), tenantID, collectionID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, stats)
}
