package transport

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/transport/middleware"
)

func InitRoutes(bookingHandler *BookingHandler, equipmentHandler *EquipmentHandler, adminHandler *AdminHandler, timeout time.Duration) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(timeout))

	// API routes
	api := router.Group("/api/v1")
	{
		equipment := api.Group("/equipment")
		{
			equipment.GET("", equipmentHandler.ListEquipment)
			equipment.GET("/availability", equipmentHandler.Availability)
			equipment.GET("/usage", equipmentHandler.CurrentUsage)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.GET("", bookingHandler.ListBookings)
			bookings.GET("/:id", bookingHandler.GetBooking)
		}

		api.GET("/help", adminHandler.GetHelp)

		// Admin routes, аутентификация на стороне внешнего провайдера
		admin := api.Group("/admin")
		{
			admin.POST("/equipment", equipmentHandler.CreateEquipment)
			admin.PUT("/equipment/:id", equipmentHandler.UpdateEquipment)
			admin.DELETE("/equipment/:id", equipmentHandler.DeleteEquipment)

			admin.POST("/bookings/sweep", bookingHandler.SweepExpired)
			admin.PUT("/bookings/:id", bookingHandler.UpdateBooking)
			admin.DELETE("/bookings/:id", bookingHandler.DeleteBooking)

			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.PUT("/help", adminHandler.UpdateHelp)
			admin.GET("/events/failed", adminHandler.FailedEvents)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	return router
}
