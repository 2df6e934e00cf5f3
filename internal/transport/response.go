package transport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

// SuccessResponse представляет успешный ответ
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Success: false,
		Error:   message,
	})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrBookingNotFound), errors.Is(err, entity.ErrEquipmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrEquipmentInUse),
		errors.Is(err, entity.ErrInsufficientEquipment),
		errors.Is(err, entity.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, entity.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrWriteNotConfirmed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError пишет ошибку сервиса; внутренние детали 500-х наружу не уходят
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Success: false, Error: err.Error()}

	var verr *entity.ValidationError
	var aerr *entity.AvailabilityError
	switch {
	case errors.As(err, &verr):
		resp.Error = "Validation failed"
		resp.Details = verr.Fields
	case errors.As(err, &aerr):
		resp.Error = entity.ErrInsufficientEquipment.Error()
		resp.Details = aerr.Shortages
	}

	if status == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"error": err,
		}).Error("Request failed with internal error")
		resp.Error = "Internal server error"
	}

	c.JSON(status, resp)
}
