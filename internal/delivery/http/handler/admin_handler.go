package handler

import (
	"net/http"

	"github.com/rehanhussain-dev/rural-health-app/internal/service"
	"github.com/rehanhussain-dev/rural-health-app/pkg/response"
)

type AdminHandler struct {
	statsService *service.StatsService
}

func NewAdminHandler(statsService *service.StatsService) *AdminHandler {
	return &AdminHandler{
		statsService: statsService,
	}
}

// GetStats returns appointment counts by status and account counts by role
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Overview(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get stats")
		return
	}

	response.Success(w, http.StatusOK, "Stats retrieved successfully", stats)
}
