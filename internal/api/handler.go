package api

import (
	"context"

	"github.com/SherClockHolmes/webpush-go"

	"room-booking-backend/internal/booking"
	"room-booking-backend/internal/catalog"
	"room-booking-backend/internal/model"
)

// Store is the part of store.Store the handlers use directly.
type Store interface {
	PutSubscription(ctx context.Context, sub *model.PushSubscription, roomIDs []string) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	Ping(ctx context.Context) error
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	bookings *booking.Service
	store    Store
	rooms    *catalog.Catalog
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(svc *booking.Service, s Store, rooms *catalog.Catalog, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		bookings: svc,
		store:    s,
		rooms:    rooms,
		webpush:  webpushOptions,
	}
}
