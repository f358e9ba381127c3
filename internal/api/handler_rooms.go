package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"room-booking-backend/internal/schedule"
)

// GetRooms handles GET /api/rooms.
func (h *Handler) GetRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.rooms.Rooms())
}

// GetAvailableRooms handles GET /api/rooms/available.
func (h *Handler) GetAvailableRooms(c *gin.Context) {
	var in schedule.SlotInput
	if err := c.ShouldBindQuery(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}

	res, err := h.bookings.Available(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetStats handles GET /api/stats.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.bookings.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Healthz reports whether the database answers.
func (h *Handler) Healthz(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
