package model

import "time"

// Booking is a reservation of one room for one date and one time range.
// Dates are YYYY-MM-DD and times are zero-padded 24h HH:MM, so string order
// matches chronological order.
type Booking struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	RoomID        string    `gorm:"size:32;not null;index:idx_bookings_room_date,priority:1;uniqueIndex:idx_bookings_slot,priority:1" json:"roomId"`
	Date          string    `gorm:"size:10;not null;index:idx_bookings_room_date,priority:2;uniqueIndex:idx_bookings_slot,priority:2" json:"date"`
	StartTime     string    `gorm:"size:5;not null;uniqueIndex:idx_bookings_slot,priority:3" json:"startTime"`
	EndTime       string    `gorm:"size:5;not null;uniqueIndex:idx_bookings_slot,priority:4" json:"endTime"`
	ProfessorName string    `gorm:"size:256;not null" json:"professorName"`
	Course        string    `gorm:"size:256;not null" json:"course"`
	Notes         string    `gorm:"not null" json:"notes"`
	CreatedAt     time.Time `gorm:"not null" json:"createdAt"`
}
