package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"room-booking-backend/internal/booking"
	"room-booking-backend/internal/schedule"
)

// CreateBooking handles POST /api/bookings.
func (h *Handler) CreateBooking(c *gin.Context) {
	var in schedule.BookingInput
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	b, err := h.bookings.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Booking created successfully",
		"booking": b,
	})
}

// nullable renders an absent filter as JSON null.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ListBookings handles GET /api/bookings.
func (h *Handler) ListBookings(c *gin.Context) {
	var f booking.Filters
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}

	bookings, err := h.bookings.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(bookings),
		"filters": gin.H{
			"roomId":        nullable(f.RoomID),
			"date":          nullable(f.Date),
			"professorName": nullable(f.ProfessorName),
		},
		"bookings": bookings,
	})
}

// GetBooking handles GET /api/bookings/:id.
func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DeleteBooking handles DELETE /api/bookings/:id.
func (h *Handler) DeleteBooking(c *gin.Context) {
	deleted, err := h.bookings.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "Booking deleted successfully",
		"deletedBooking": deleted,
	})
}

// ExportBookings handles GET /api/bookings/export with the list filters.
func (h *Handler) ExportBookings(c *gin.Context) {
	var f booking.Filters
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}

	data, err := h.bookings.Export(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}

	name := "bookings.xlsx"
	if f.Date != "" {
		name = fmt.Sprintf("bookings_%s.xlsx", f.Date)
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
