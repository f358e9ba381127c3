package booking

import (
	"context"

	"room-booking-backend/internal/schedule"
	"room-booking-backend/internal/store"
)

// Stats is the dashboard summary.
type Stats struct {
	TotalBookings int64 `json:"totalBookings"`
	TodayBookings int   `json:"todayBookings"`
	ActiveRooms   int   `json:"activeRooms"`
}

// Stats counts all bookings, today's bookings, and the rooms occupied at
// this minute.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now()
	today := now.Format("2006-01-02")
	clock := now.Format("15:04")

	total, err := s.store.CountBookings(ctx)
	if err != nil {
		return nil, err
	}
	todays, err := s.store.FindBookings(ctx, store.Where(store.Eq(store.FieldDate, today)))
	if err != nil {
		return nil, err
	}

	active := make(map[string]bool)
	for _, b := range todays {
		if schedule.IntervalOf(b).Contains(clock) {
			active[b.RoomID] = true
		}
	}

	return &Stats{TotalBookings: total, TodayBookings: len(todays), ActiveRooms: len(active)}, nil
}
