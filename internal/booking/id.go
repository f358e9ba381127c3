package booking

import "github.com/google/uuid"

// NewID returns a fresh booking id. The random UUIDv4 suffix carries 122
// bits, so a collision among n ids has probability about n²/2¹²³.
func NewID() string {
	return "booking-" + uuid.NewString()
}
