package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"room-booking-backend/internal/model"
)

var (
	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert hits a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// Store defines the interface for all database operations.
type Store interface {
	CreateBooking(ctx context.Context, b *model.Booking) error
	FindBookings(ctx context.Context, q Query) ([]model.Booking, error)
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	DeleteBooking(ctx context.Context, id, roomID string) error
	CountBookings(ctx context.Context) (int64, error)

	PutSubscription(ctx context.Context, sub *model.PushSubscription, roomIDs []string) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscribersForRoom(ctx context.Context, roomID string) ([]model.PushSubscription, error)

	Ping(ctx context.Context) error
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CreateBooking inserts b as a single row.
func (s *gormStore) CreateBooking(ctx context.Context, b *model.Booking) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: booking %s", ErrDuplicate, b.ID)
		}
		return fmt.Errorf("failed to insert booking %s: %w", b.ID, err)
	}
	return nil
}

// FindBookings returns the bookings matching q ordered by date and start time.
func (s *gormStore) FindBookings(ctx context.Context, q Query) ([]model.Booking, error) {
	tx, err := q.apply(s.db.WithContext(ctx).Model(&model.Booking{}))
	if err != nil {
		return nil, err
	}

	bookings := make([]model.Booking, 0)
	if err := tx.Order("date ASC").Order("start_time ASC").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	return bookings, nil
}

func (s *gormStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load booking %s: %w", id, err)
	}
	return &b, nil
}

// DeleteBooking removes the booking keyed by (id, roomID).
func (s *gormStore) DeleteBooking(ctx context.Context, id, roomID string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND room_id = ?", id, roomID).
		Delete(&model.Booking{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete booking %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) CountBookings(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Booking{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return n, nil
}

// PutSubscription creates or replaces a subscription and the rooms it watches.
func (s *gormStore) PutSubscription(ctx context.Context, sub *model.PushSubscription, roomIDs []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		if err := tx.Where("endpoint = ?", sub.Endpoint).Delete(&model.SubscriptionRoom{}).Error; err != nil {
			return fmt.Errorf("failed to clear subscription rooms: %w", err)
		}

		if len(roomIDs) == 0 {
			sub.Rooms = nil
			return nil
		}
		rooms := make([]model.SubscriptionRoom, 0, len(roomIDs))
		seen := make(map[string]bool, len(roomIDs))
		for _, id := range roomIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			rooms = append(rooms, model.SubscriptionRoom{Endpoint: sub.Endpoint, RoomID: id})
		}
		if err := tx.Create(&rooms).Error; err != nil {
			return fmt.Errorf("failed to store subscription rooms: %w", err)
		}
		sub.Rooms = rooms
		return nil
	})
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).Preload("Rooms").First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("endpoint = ?", endpoint).Delete(&model.SubscriptionRoom{}).Error; err != nil {
			return err
		}
		return tx.Where("endpoint = ?", endpoint).Delete(&model.PushSubscription{}).Error
	})
}

// SubscribersForRoom lists the subscriptions watching roomID.
func (s *gormStore) SubscribersForRoom(ctx context.Context, roomID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_rooms sr ON sr.endpoint = push_subscriptions.endpoint").
		Where("sr.room_id = ?", roomID).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load subscribers for room %s: %w", roomID, err)
	}
	return subs, nil
}
