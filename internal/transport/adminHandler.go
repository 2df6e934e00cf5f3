package transport

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/service"
)

// FailedEventReader reads booking events that were moved to the dead letter queue.
type FailedEventReader interface {
	List(ctx context.Context, limit int64) ([]entity.FailedEvent, error)
}

// AdminHandler обслуживает панель администратора и страницу помощи
type AdminHandler struct {
	dashboardService service.DashboardService
	helpService      service.HelpService
	failedEvents     FailedEventReader
}

// NewAdminHandler; failedEvents может быть nil, если Redis не настроен
func NewAdminHandler(dashboardService service.DashboardService, helpService service.HelpService, failedEvents FailedEventReader) *AdminHandler {
	return &AdminHandler{
		dashboardService: dashboardService,
		helpService:      helpService,
		failedEvents:     failedEvents,
	}
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.dashboardService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Dashboard statistics retrieved", stats)
}

func (h *AdminHandler) GetHelp(c *gin.Context) {
	help, err := h.helpService.GetHelp(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Help content retrieved", help)
}

func (h *AdminHandler) UpdateHelp(c *gin.Context) {
	var req service.UpdateHelpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	help, err := h.helpService.UpdateHelp(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Help content updated", help)
}

// FailedEvents возвращает недоставленные события, старые первыми
func (h *AdminHandler) FailedEvents(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	events := []entity.FailedEvent{}
	if h.failedEvents != nil {
		events, err = h.failedEvents.List(c.Request.Context(), limit)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Failed events retrieved",
		Data:    events,
		Meta:    map[string]interface{}{"limit": limit, "total": len(events)},
	})
}
