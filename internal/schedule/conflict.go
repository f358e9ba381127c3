package schedule

import "room-booking-backend/internal/model"

// HasConflict reports whether candidate overlaps any of existing. existing
// must already be limited to the candidate's room and date.
func HasConflict(candidate Interval, existing []model.Booking) bool {
	for _, b := range existing {
		if Overlaps(candidate, IntervalOf(b)) {
			return true
		}
	}
	return false
}

// Conflicts returns the bookings in existing that overlap candidate, sorted
// by start time. The result is empty when the slot is free.
func Conflicts(candidate Interval, existing []model.Booking) []Entry {
	out := make([]Entry, 0)
	for _, b := range existing {
		if Overlaps(candidate, IntervalOf(b)) {
			out = append(out, EntryOf(b))
		}
	}
	SortEntries(out)
	return out
}
