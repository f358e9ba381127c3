package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-booking-backend/config"
	"room-booking-backend/internal/api"
	"room-booking-backend/internal/booking"
	"room-booking-backend/internal/catalog"
	"room-booking-backend/internal/db"
	"room-booking-backend/internal/metrics"
	"room-booking-backend/internal/notification"
	"room-booking-backend/internal/store"
)

type capturedJobs struct {
	mu   sync.Mutex
	jobs []notification.Job
}

func (c *capturedJobs) Dispatch(job notification.Job) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = append(c.jobs, job)
	return true
}

// TestBookingLifecycle drives the HTTP API against a real sqlite database:
// a booking is created, a conflicting one is rejected, availability reflects
// both, and deleting the booking frees the room and notifies subscribers.
func TestBookingLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}
	gormDB, err := db.Init(cfg)
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()

	appStore := store.NewGormStore(gormDB)
	rooms := catalog.Default()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	notifier := &capturedJobs{}

	svc := booking.NewService(appStore, rooms,
		booking.WithMetrics(m),
		booking.WithNotifier(notifier),
	)
	router := api.NewRouter(api.Options{
		Service:   svc,
		Store:     appStore,
		Rooms:     rooms,
		Metrics:   m,
		Gatherer:  reg,
		RateLimit: 100,
		Burst:     100,
		CacheTTL:  time.Minute,
	})

	call := func(method, target string, body any) (int, map[string]any) {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, target, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var out map[string]any
		if w.Body.Len() > 0 {
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
		}
		return w.Code, out
	}

	availablePath := "/api/rooms/available?date=2024-12-15&startTime=09:00&endTime=10:00"

	// --- All rooms free ---
	code, body := call(http.MethodGet, availablePath, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(8), body["availableCount"])

	// --- Subscribe to A101 ---
	code, _ = call(http.MethodPut, "/api/subscriptions", map[string]any{
		"endpoint":         "https://push.example.com/a101",
		"p256dh":           "key",
		"auth":             "auth",
		"subscribed_rooms": []string{"A101"},
	})
	require.Equal(t, http.StatusCreated, code)
	subs, err := appStore.SubscribersForRoom(context.Background(), "A101")
	require.NoError(t, err)
	require.Len(t, subs, 1)

	// --- Book A101 ---
	code, body = call(http.MethodPost, "/api/bookings", map[string]string{
		"roomId": "A101", "date": "2024-12-15", "startTime": "09:00", "endTime": "11:00",
		"professorName": "Prof. Rossi", "course": "Math", "notes": "bring slides",
	})
	require.Equal(t, http.StatusCreated, code)
	id := body["booking"].(map[string]any)["id"].(string)

	// --- Overlap rejected, nothing stored ---
	code, body = call(http.MethodPost, "/api/bookings", map[string]string{
		"roomId": "A101", "date": "2024-12-15", "startTime": "10:30", "endTime": "12:00",
		"professorName": "Dr. Bianchi", "course": "Physics",
	})
	require.Equal(t, http.StatusConflict, code)
	assert.Len(t, body["existingBookings"], 1)

	n, err := appStore.CountBookings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// --- Availability sees the booking despite the cached earlier answer ---
	code, body = call(http.MethodGet, availablePath, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(7), body["availableCount"])

	// --- Delete frees the room ---
	code, body = call(http.MethodDelete, "/api/bookings/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "A101", body["deletedBooking"].(map[string]any)["roomId"])
	assert.Equal(t, []notification.Job{{RoomID: "A101", Date: "2024-12-15", StartTime: "09:00", EndTime: "11:00"}}, notifier.jobs)

	code, body = call(http.MethodGet, availablePath, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(8), body["availableCount"])

	code, body = call(http.MethodGet, "/api/bookings", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["count"])
}
