package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/service"
)

type EquipmentHandler struct {
	equipmentService    service.EquipmentService
	availabilityService service.AvailabilityService
}

func NewEquipmentHandler(equipmentService service.EquipmentService, availabilityService service.AvailabilityService) *EquipmentHandler {
	return &EquipmentHandler{
		equipmentService:    equipmentService,
		availabilityService: availabilityService,
	}
}

func (h *EquipmentHandler) ListEquipment(c *gin.Context) {
	equipment, err := h.equipmentService.ListEquipment(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Equipment retrieved successfully", equipment)
}

// Availability отвечает на ?date=&start_time=&end_time=[&exclude_booking_id=]
func (h *EquipmentHandler) Availability(c *gin.Context) {
	var query service.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBadRequest(c, "Invalid query: "+err.Error())
		return
	}

	available, err := h.availabilityService.AvailableEquipment(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Availability resolved", available)
}

func (h *EquipmentHandler) CurrentUsage(c *gin.Context) {
	usage, err := h.availabilityService.CurrentUsage(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Current usage resolved", usage)
}

func (h *EquipmentHandler) CreateEquipment(c *gin.Context) {
	var req service.CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	equipment, err := h.equipmentService.CreateEquipment(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Equipment created successfully", equipment)
}

func (h *EquipmentHandler) UpdateEquipment(c *gin.Context) {
	var req service.UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	equipment, err := h.equipmentService.UpdateEquipment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Equipment updated successfully", equipment)
}

func (h *EquipmentHandler) DeleteEquipment(c *gin.Context) {
	id := c.Param("id")
	if err := h.equipmentService.DeleteEquipment(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Equipment deleted successfully",
		Meta:    map[string]interface{}{"equipment_id": id},
	})
}
