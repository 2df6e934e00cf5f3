package transport

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/service"
)

type BookingHandler struct {
	bookingService service.BookingService
}

func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Booking created successfully", booking)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Booking retrieved successfully", booking)
}

// ListBookings возвращает бронирования с фильтрами ?date= и ?status=
func (h *BookingHandler) ListBookings(c *gin.Context) {
	filter := entity.BookingFilter{
		Date:   c.Query("date"),
		Status: entity.BookingStatus(c.Query("status")),
	}

	bookings, err := h.bookingService.ListBookings(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Bookings retrieved successfully",
		Data:    bookings,
		Meta: map[string]interface{}{
			"total":  len(bookings),
			"date":   filter.Date,
			"status": filter.Status,
		},
	})
}

func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	var req service.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	booking, err := h.bookingService.UpdateBooking(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Booking updated successfully", booking)
}

func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	id := c.Param("id")
	if err := h.bookingService.DeleteBooking(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Booking deleted successfully",
		Meta:    map[string]interface{}{"booking_id": id},
	})
}

// SweepExpired запускает истечение просроченных бронирований вручную
func (h *BookingHandler) SweepExpired(c *gin.Context) {
	count, err := h.bookingService.SweepExpired(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Expired bookings swept", gin.H{"expired": count})
}
