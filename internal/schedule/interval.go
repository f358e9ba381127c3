// Package schedule holds the booking rules that do not touch storage:
// input validation, the half-open overlap predicate, conflict detection and
// room availability.
package schedule

import (
	"sort"

	"room-booking-backend/internal/model"
)

// Interval is a half-open [Start, End) range of zero-padded HH:MM times on a
// single room and date.
type Interval struct {
	Start string
	End   string
}

// Overlaps reports whether a and b share any minute. Back-to-back intervals
// (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return !(a.End <= b.Start || a.Start >= b.End)
}

// Contains reports whether the HH:MM instant t falls inside iv.
func (iv Interval) Contains(t string) bool {
	return iv.Start <= t && t < iv.End
}

// IntervalOf returns the time range occupied by b.
func IntervalOf(b model.Booking) Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// Entry is a booking reduced to what another user needs to pick a free slot.
type Entry struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Course    string `json:"course"`
}

// EntryOf reduces b to a schedule entry.
func EntryOf(b model.Booking) Entry {
	return Entry{StartTime: b.StartTime, EndTime: b.EndTime, Course: b.Course}
}

// SortEntries orders entries by start time, keeping the input order for ties.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StartTime < entries[j].StartTime
	})
}
