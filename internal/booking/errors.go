package booking

import (
	"errors"

	"room-booking-backend/internal/schedule"
)

// ErrNotFound is returned when a booking id does not resolve to a record.
var ErrNotFound = errors.New("booking not found")

// ConflictError rejects a booking that overlaps existing bookings of the same
// room and date.
type ConflictError struct {
	Conflicts []schedule.Entry
}

func (e *ConflictError) Error() string {
	return "Conflict: room already booked for this time slot"
}
