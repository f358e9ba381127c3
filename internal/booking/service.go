// Package booking orchestrates room bookings: it validates requests,
// serializes conflicting writes, and talks to storage, push notifications
// and the event bus.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"room-booking-backend/internal/catalog"
	"room-booking-backend/internal/events"
	"room-booking-backend/internal/metrics"
	"room-booking-backend/internal/model"
	"room-booking-backend/internal/notification"
	"room-booking-backend/internal/schedule"
	"room-booking-backend/internal/store"
)

// Store is the part of store.Store the service uses.
type Store interface {
	CreateBooking(ctx context.Context, b *model.Booking) error
	FindBookings(ctx context.Context, q store.Query) ([]model.Booking, error)
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	DeleteBooking(ctx context.Context, id, roomID string) error
	CountBookings(ctx context.Context) (int64, error)
}

// Notifier queues room-freed notifications.
type Notifier interface {
	Dispatch(job notification.Job) bool
}

// Service implements the booking operations.
type Service struct {
	store     Store
	rooms     *catalog.Catalog
	locker    Locker
	notifier  Notifier
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
	newID     func() string
}

// Option configures a Service.
type Option func(*Service)

func WithLocker(l Locker) Option              { return func(s *Service) { s.locker = l } }
func WithNotifier(n Notifier) Option          { return func(s *Service) { s.notifier = n } }
func WithPublisher(p events.Publisher) Option { return func(s *Service) { s.publisher = p } }
func WithMetrics(m *metrics.Metrics) Option   { return func(s *Service) { s.metrics = m } }
func WithClock(now func() time.Time) Option   { return func(s *Service) { s.now = now } }
func WithIDGenerator(f func() string) Option  { return func(s *Service) { s.newID = f } }

// NewService wires a Service. Without options it uses an in-process lock,
// sends no notifications and publishes no events.
func NewService(st Store, rooms *catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		store:     st,
		rooms:     rooms,
		locker:    NewKeyedMutex(),
		publisher: events.Nop{},
		now:       time.Now,
		newID:     NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates in and stores it unless it overlaps another booking of
// the same room and date.
func (s *Service) Create(ctx context.Context, in schedule.BookingInput) (*model.Booking, error) {
	if err := schedule.ValidateBooking(in); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, slotKey(in.RoomID, in.Date))
	if err != nil {
		return nil, fmt.Errorf("failed to lock room %s on %s: %w", in.RoomID, in.Date, err)
	}
	defer unlock()

	existing, err := s.sameSlot(ctx, in.RoomID, in.Date)
	if err != nil {
		return nil, err
	}
	if conflicts := schedule.Conflicts(in.Interval(), existing); len(conflicts) > 0 {
		s.metrics.BookingConflict()
		return nil, &ConflictError{Conflicts: conflicts}
	}

	b := &model.Booking{
		ID:            s.newID(),
		RoomID:        in.RoomID,
		Date:          in.Date,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		ProfessorName: in.ProfessorName,
		Course:        in.Course,
		Notes:         in.Notes,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.store.CreateBooking(ctx, b); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, s.duplicateConflict(ctx, in)
		}
		return nil, err
	}

	log.Printf("Booking %s created for room %s on %s %s-%s", b.ID, b.RoomID, b.Date, b.StartTime, b.EndTime)
	s.metrics.BookingCreated()
	s.publish(ctx, events.BookingCreated, b)
	return b, nil
}

// duplicateConflict builds the conflict for an insert the storage layer
// rejected as a duplicate slot.
func (s *Service) duplicateConflict(ctx context.Context, in schedule.BookingInput) error {
	s.metrics.BookingConflict()
	existing, err := s.sameSlot(ctx, in.RoomID, in.Date)
	if err != nil {
		return err
	}
	return &ConflictError{Conflicts: schedule.Conflicts(in.Interval(), existing)}
}

func (s *Service) sameSlot(ctx context.Context, roomID, date string) ([]model.Booking, error) {
	q := store.Where(store.Eq(store.FieldRoomID, roomID), store.Eq(store.FieldDate, date))
	bookings, err := s.store.FindBookings(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for room %s on %s: %w", roomID, date, err)
	}
	return bookings, nil
}

// Filters narrows a booking listing. Empty fields are ignored.
type Filters struct {
	RoomID        string `form:"roomId" json:"roomId"`
	Date          string `form:"date" json:"date"`
	ProfessorName string `form:"professorName" json:"professorName"`
}

func (f Filters) query() store.Query {
	return store.Where(
		store.Eq(store.FieldRoomID, f.RoomID),
		store.Eq(store.FieldDate, f.Date),
		store.ContainsFold(store.FieldProfessorName, f.ProfessorName),
	)
}

// List returns the bookings matching every non-empty filter, ordered by date
// and start time.
func (s *Service) List(ctx context.Context, f Filters) ([]model.Booking, error) {
	return s.store.FindBookings(ctx, f.query())
}

// Get returns the booking with the given id.
func (s *Service) Get(ctx context.Context, id string) (*model.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return b, err
}

// Deleted summarizes a removed booking.
type Deleted struct {
	ID     string `json:"id"`
	RoomID string `json:"roomId"`
	Date   string `json:"date"`
	Course string `json:"course"`
}

// Delete removes the booking with the given id and tells the room's
// subscribers that the slot is free.
func (s *Service) Delete(ctx context.Context, id string) (*Deleted, error) {
	if id == "" {
		return nil, &schedule.ValidationError{Kind: schedule.MissingField, Message: "Missing booking ID"}
	}

	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteBooking(ctx, b.ID, b.RoomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	log.Printf("Booking %s deleted from room %s on %s", b.ID, b.RoomID, b.Date)
	s.metrics.BookingDeleted()
	if s.notifier != nil {
		s.notifier.Dispatch(notification.Job{RoomID: b.RoomID, Date: b.Date, StartTime: b.StartTime, EndTime: b.EndTime})
	}
	s.publish(ctx, events.BookingDeleted, b)

	return &Deleted{ID: b.ID, RoomID: b.RoomID, Date: b.Date, Course: b.Course}, nil
}

// RequestedSlot echoes the slot an availability search asked for.
type RequestedSlot struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// AvailabilityResult is the answer to an availability search.
type AvailabilityResult struct {
	RequestedSlot RequestedSlot `json:"requestedSlot"`
	schedule.Availability
}

// Available lists the rooms free for the requested slot.
func (s *Service) Available(ctx context.Context, in schedule.SlotInput) (*AvailabilityResult, error) {
	if err := schedule.ValidateSlot(in); err != nil {
		return nil, err
	}
	minCapacity, err := in.Capacity()
	if err != nil {
		return nil, &schedule.ValidationError{Kind: schedule.BadCapacity, Message: "minCapacity must be a non-negative integer"}
	}
	s.metrics.AvailabilityQuery()

	bookings, err := s.store.FindBookings(ctx, store.Where(store.Eq(store.FieldDate, in.Date)))
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for %s: %w", in.Date, err)
	}

	return &AvailabilityResult{
		RequestedSlot: RequestedSlot{Date: in.Date, StartTime: in.StartTime, EndTime: in.EndTime},
		Availability:  schedule.FindAvailable(in.Date, in.Interval(), bookings, s.rooms.Rooms(), minCapacity),
	}, nil
}

func (s *Service) publish(ctx context.Context, key string, b *model.Booking) {
	if err := s.publisher.PublishJSON(ctx, key, b); err != nil {
		log.Printf("Failed to publish %s for booking %s: %v", key, b.ID, err)
	}
}
