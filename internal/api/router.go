package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"room-booking-backend/internal/booking"
	"room-booking-backend/internal/catalog"
	"room-booking-backend/internal/metrics"
	"room-booking-backend/internal/mw"
)

// Options configures the router.
type Options struct {
	Service        *booking.Service
	Store          Store
	Rooms          *catalog.Catalog
	WebPush        *webpush.Options
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RateLimit      float64
	Burst          int
	CacheTTL       time.Duration
	AllowedOrigins []string
}

// NewRouter creates and configures a new Gin router.
func NewRouter(o Options) *gin.Engine {
	r := gin.Default()
	r.Use(mw.RequestID(), mw.CORS(o.AllowedOrigins), mw.Metrics(o.Metrics))

	handler := NewHandler(o.Service, o.Store, o.Rooms, o.WebPush)

	rateLimiter := mw.RateLimiter(rate.Limit(o.RateLimit), o.Burst)
	responses := mw.NewResponseCache(o.CacheTTL)
	caching := responses.Cache()

	r.GET("/healthz", handler.Healthz)
	if o.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.Use(rateLimiter, responses.Invalidate())
	{
		api.POST("/bookings", handler.CreateBooking)
		api.GET("/bookings", caching, handler.ListBookings)
		api.GET("/bookings/export", handler.ExportBookings)
		api.GET("/bookings/:id", caching, handler.GetBooking)
		api.DELETE("/bookings", handler.DeleteBooking)
		api.DELETE("/bookings/:id", handler.DeleteBooking)

		api.GET("/rooms", caching, handler.GetRooms)
		api.GET("/rooms/available", caching, handler.GetAvailableRooms)
		api.GET("/stats", handler.GetStats)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
