package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"room-booking-backend/internal/booking"
	"room-booking-backend/internal/mw"
	"room-booking-backend/internal/schedule"
)

// writeError maps service errors to status codes and response bodies.
func writeError(c *gin.Context, err error) {
	var (
		verr     *schedule.ValidationError
		conflict *booking.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		body := gin.H{"error": verr.Message}
		if len(verr.Required) > 0 {
			body["required"] = verr.Required
		}
		if verr.Formats != nil {
			body["formats"] = verr.Formats
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":            conflict.Error(),
			"existingBookings": conflict.Conflicts,
		})
	case errors.Is(err, booking.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found", "id": c.Param("id")})
	default:
		log.Printf("Request %s %s %s failed: %v", mw.GetRequestID(c), c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": err.Error(),
		})
	}
}
