package schedule

import (
	"room-booking-backend/internal/catalog"
	"room-booking-backend/internal/model"
)

// RoomAvailability is a free room annotated with its bookings for the day.
type RoomAvailability struct {
	catalog.Room
	BookingsToday int     `json:"bookingsToday"`
	Schedule      []Entry `json:"schedule"`
}

// Availability is the outcome of an availability search.
type Availability struct {
	TotalRooms     int                `json:"totalRooms"`
	AvailableCount int                `json:"availableCount"`
	Rooms          []RoomAvailability `json:"rooms"`
}

// GroupByRoom partitions bookings by room id, keeping their relative order.
func GroupByRoom(bookings []model.Booking) map[string][]model.Booking {
	groups := make(map[string][]model.Booking)
	for _, b := range bookings {
		groups[b.RoomID] = append(groups[b.RoomID], b)
	}
	return groups
}

// DaySchedule reduces a room's bookings to entries sorted by start time.
func DaySchedule(bookings []model.Booking) []Entry {
	out := make([]Entry, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, EntryOf(b))
	}
	SortEntries(out)
	return out
}

// FindAvailable returns the rooms whose bookings on date leave candidate free.
// A minCapacity above zero further drops rooms that are too small. Every
// returned room carries its full schedule for date. Rooms keep catalog order.
func FindAvailable(date string, candidate Interval, bookings []model.Booking, rooms []catalog.Room, minCapacity int) Availability {
	sameDay := make([]model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Date == date {
			sameDay = append(sameDay, b)
		}
	}
	byRoom := GroupByRoom(sameDay)

	free := make([]catalog.Room, 0, len(rooms))
	for _, r := range rooms {
		if !HasConflict(candidate, byRoom[r.ID]) {
			free = append(free, r)
		}
	}

	if minCapacity > 0 {
		large := free[:0]
		for _, r := range free {
			if r.Capacity >= minCapacity {
				large = append(large, r)
			}
		}
		free = large
	}

	out := make([]RoomAvailability, 0, len(free))
	for _, r := range free {
		day := DaySchedule(byRoom[r.ID])
		out = append(out, RoomAvailability{
			Room:          r,
			BookingsToday: len(day),
			Schedule:      day,
		})
	}

	return Availability{
		TotalRooms:     len(rooms),
		AvailableCount: len(out),
		Rooms:          out,
	}
}
