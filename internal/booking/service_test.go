package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"room-booking-backend/internal/catalog"
	"room-booking-backend/internal/db"
	"room-booking-backend/internal/model"
	"room-booking-backend/internal/notification"
	"room-booking-backend/internal/schedule"
	"room-booking-backend/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	sqlDB, _ := gormDB.DB()
	t.Cleanup(func() { sqlDB.Close() })
	return store.NewGormStore(gormDB)
}

func countBookings(t *testing.T, st Store) int64 {
	t.Helper()
	n, err := st.CountBookings(context.Background())
	require.NoError(t, err)
	return n
}

var errStoreTouched = errors.New("store must not be touched")

// untouchedStore fails every booking read and write.
type untouchedStore struct{ store.Store }

func (untouchedStore) FindBookings(context.Context, store.Query) ([]model.Booking, error) {
	return nil, errStoreTouched
}

func (untouchedStore) CreateBooking(context.Context, *model.Booking) error {
	return errStoreTouched
}

// failingStore rejects every insert with err.
type failingStore struct {
	store.Store
	err error
}

func (f failingStore) CreateBooking(context.Context, *model.Booking) error {
	return f.err
}

// racyStore hides existing bookings from the first FindBookings call and
// then reports the insert as a duplicate, as when a concurrent writer
// committed the same slot after the read.
type racyStore struct {
	store.Store
	reads int
}

func (r *racyStore) FindBookings(ctx context.Context, q store.Query) ([]model.Booking, error) {
	r.reads++
	if r.reads == 1 {
		return []model.Booking{}, nil
	}
	return r.Store.FindBookings(ctx, q)
}

func (r *racyStore) CreateBooking(_ context.Context, b *model.Booking) error {
	return fmt.Errorf("%w: booking %s", store.ErrDuplicate, b.ID)
}

type recordingNotifier struct {
	jobs []notification.Job
}

func (r *recordingNotifier) Dispatch(job notification.Job) bool {
	r.jobs = append(r.jobs, job)
	return true
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

var fixedNow = time.Date(2024, 12, 15, 10, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, st Store, opts ...Option) *Service {
	t.Helper()
	n := 0
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("booking-%d", n)
		}),
	}
	return NewService(st, catalog.Default(), append(base, opts...)...)
}

func input(room, date, start, end, course string) schedule.BookingInput {
	return schedule.BookingInput{
		RoomID:        room,
		Date:          date,
		StartTime:     start,
		EndTime:       end,
		ProfessorName: "Prof. Rossi",
		Course:        course,
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newTestService(t, newTestStore(t), WithPublisher(pub))

	b, err := svc.Create(ctx, input("A101", "2024-12-15", "09:00", "11:00", "Math"))
	require.NoError(t, err)
	assert.Equal(t, "booking-1", b.ID)
	assert.Equal(t, "", b.Notes)
	assert.Equal(t, fixedNow, b.CreatedAt)
	assert.Equal(t, []string{"booking.created"}, pub.keys)

	t.Run("overlap is rejected with the colliding bookings", func(t *testing.T) {
		_, err := svc.Create(ctx, input("A101", "2024-12-15", "10:00", "12:00", "Physics"))
		var conflict *ConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, []schedule.Entry{{StartTime: "09:00", EndTime: "11:00", Course: "Math"}}, conflict.Conflicts)
	})

	t.Run("back-to-back is accepted", func(t *testing.T) {
		_, err := svc.Create(ctx, input("A101", "2024-12-15", "11:00", "12:00", "Physics"))
		require.NoError(t, err)
	})

	t.Run("other room or date is independent", func(t *testing.T) {
		_, err := svc.Create(ctx, input("A102", "2024-12-15", "09:00", "11:00", "Chemistry"))
		require.NoError(t, err)
		_, err = svc.Create(ctx, input("A101", "2024-12-16", "09:00", "11:00", "Chemistry"))
		require.NoError(t, err)
	})

	t.Run("validation happens before storage", func(t *testing.T) {
		svc := newTestService(t, untouchedStore{})

		_, err := svc.Create(ctx, input("A101", "2024-12-15", "11:00", "09:00", "Math"))
		var verr *schedule.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, schedule.InvertedInterval, verr.Kind)
	})
}

func TestService_Create_DuplicateFromStorageIsConflict(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, err := newTestService(t, st).Create(ctx, input("A101", "2024-12-15", "09:00", "11:00", "Math"))
	require.NoError(t, err)

	svc := newTestService(t, &racyStore{Store: st})
	_, err = svc.Create(ctx, input("A101", "2024-12-15", "09:00", "11:00", "Math again"))
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []schedule.Entry{{StartTime: "09:00", EndTime: "11:00", Course: "Math"}}, conflict.Conflicts)
	assert.Equal(t, int64(1), countBookings(t, st))
}

func TestService_Create_StorageFailure(t *testing.T) {
	st := newTestStore(t)
	svc := newTestService(t, failingStore{Store: st, err: errors.New("disk full")})

	_, err := svc.Create(context.Background(), input("A101", "2024-12-15", "09:00", "11:00", "Math"))
	require.Error(t, err)
	assert.False(t, errors.As(err, new(*ConflictError)))
	assert.Equal(t, int64(0), countBookings(t, st))
}

func TestService_Create_PublishFailureIsIgnored(t *testing.T) {
	svc := newTestService(t, newTestStore(t), WithPublisher(&recordingPublisher{err: errors.New("broker down")}))

	_, err := svc.Create(context.Background(), input("A101", "2024-12-15", "09:00", "11:00", "Math"))
	assert.NoError(t, err)
}

// Concurrent overlapping requests for one room and date: exactly one wins.
func TestService_Create_Concurrent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewService(st, catalog.Default())

	const n = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := fmt.Sprintf("09:%02d", i)
			_, err := svc.Create(ctx, input("A101", "2024-12-15", start, "11:00", "Math"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if errors.As(err, new(*ConflictError)) {
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, conflicts)
	assert.Equal(t, int64(1), countBookings(t, st))
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newTestStore(t))

	seed := []schedule.BookingInput{
		input("A101", "2024-12-16", "09:00", "10:00", "Math"),
		input("A101", "2024-12-15", "14:00", "15:00", "Physics"),
		input("B201", "2024-12-15", "09:00", "10:00", "Chemistry"),
	}
	seed[2].ProfessorName = "Dr. Bianchi"
	for _, in := range seed {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	testCases := []struct {
		name    string
		filters Filters
		courses []string
	}{
		{name: "no filters", filters: Filters{}, courses: []string{"Chemistry", "Physics", "Math"}},
		{name: "room", filters: Filters{RoomID: "A101"}, courses: []string{"Physics", "Math"}},
		{name: "room and date", filters: Filters{RoomID: "A101", Date: "2024-12-15"}, courses: []string{"Physics"}},
		{name: "professor substring ignores case", filters: Filters{ProfessorName: "bianc"}, courses: []string{"Chemistry"}},
		{name: "no match", filters: Filters{RoomID: "C301"}, courses: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.List(ctx, tc.filters)
			require.NoError(t, err)
			courses := make([]string, 0, len(got))
			for _, b := range got {
				courses = append(courses, b.Course)
			}
			assert.Equal(t, tc.courses, courses)
		})
	}
}

func TestService_GetAndDelete(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	pub := &recordingPublisher{}
	svc := newTestService(t, newTestStore(t), WithNotifier(notifier), WithPublisher(pub))

	b, err := svc.Create(ctx, input("A101", "2024-12-15", "09:00", "11:00", "Math"))
	require.NoError(t, err)

	got, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Course, got.Course)

	deleted, err := svc.Delete(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, &Deleted{ID: b.ID, RoomID: "A101", Date: "2024-12-15", Course: "Math"}, deleted)
	assert.Equal(t, []notification.Job{{RoomID: "A101", Date: "2024-12-15", StartTime: "09:00", EndTime: "11:00"}}, notifier.jobs)
	assert.Equal(t, []string{"booking.created", "booking.deleted"}, pub.keys)

	_, err = svc.Get(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Delete(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Delete(ctx, "")
	var verr *schedule.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Missing booking ID", verr.Message)

	// The freed slot can be booked again.
	_, err = svc.Create(ctx, input("A101", "2024-12-15", "09:00", "11:00", "Physics"))
	assert.NoError(t, err)
}

func TestService_Delete_UnknownIDKeepsRecords(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	notifier := &recordingNotifier{}
	svc := newTestService(t, st, WithNotifier(notifier))

	_, err := svc.Create(ctx, input("A101", "2024-12-15", "09:00", "11:00", "Math"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, input("B201", "2024-12-15", "09:00", "11:00", "Physics"))
	require.NoError(t, err)

	_, err = svc.Delete(ctx, "booking-does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(2), countBookings(t, st))
	assert.Empty(t, notifier.jobs)
}

func TestService_Available(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newTestStore(t))

	for _, in := range []schedule.BookingInput{
		input("A101", "2024-12-15", "09:00", "11:00", "Math"),
		input("A102", "2024-12-15", "14:00", "16:00", "Physics"),
		input("A102", "2024-12-15", "08:00", "09:00", "Early"),
		input("B201", "2024-12-16", "09:00", "11:00", "Tomorrow"),
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	res, err := svc.Available(ctx, schedule.SlotInput{Date: "2024-12-15", StartTime: "10:00", EndTime: "12:00"})
	require.NoError(t, err)
	assert.Equal(t, RequestedSlot{Date: "2024-12-15", StartTime: "10:00", EndTime: "12:00"}, res.RequestedSlot)
	assert.Equal(t, 8, res.TotalRooms)
	assert.Equal(t, 7, res.AvailableCount)
	require.NotEmpty(t, res.Rooms)
	assert.Equal(t, "A102", res.Rooms[0].ID)
	assert.Equal(t, 2, res.Rooms[0].BookingsToday)
	assert.Equal(t, "08:00", res.Rooms[0].Schedule[0].StartTime)

	res, err = svc.Available(ctx, schedule.SlotInput{Date: "2024-12-15", StartTime: "10:00", EndTime: "12:00", MinCapacity: "60"})
	require.NoError(t, err)
	ids := make([]string, 0, len(res.Rooms))
	for _, r := range res.Rooms {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"A103", "B202", "C301"}, ids)

	// A capacity beyond any room filters every room out.
	res, err = svc.Available(ctx, schedule.SlotInput{Date: "2024-12-15", StartTime: "10:00", EndTime: "12:00", MinCapacity: "99999999999999999999"})
	require.NoError(t, err)
	assert.Equal(t, 8, res.TotalRooms)
	assert.Equal(t, 0, res.AvailableCount)
	assert.Empty(t, res.Rooms)

	_, err = svc.Available(ctx, schedule.SlotInput{Date: "2024-12-15", StartTime: "10:00", EndTime: "12:00", MinCapacity: "-1"})
	var verr *schedule.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, schedule.BadCapacity, verr.Kind)
}

func TestService_Stats(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newTestStore(t))

	for _, in := range []schedule.BookingInput{
		input("A101", "2024-12-15", "09:00", "11:00", "Now"),
		input("A102", "2024-12-15", "10:30", "11:00", "Starts now"),
		input("A103", "2024-12-15", "09:00", "10:30", "Just ended"),
		input("B201", "2024-12-16", "09:00", "11:00", "Tomorrow"),
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Stats{TotalBookings: 4, TodayBookings: 3, ActiveRooms: 2}, stats)
}

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		require.Regexp(t, `^booking-[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`, id)
		require.False(t, seen[id])
		seen[id] = true
	}
}
