package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"room-booking-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// SubscriptionStore is the part of the store the workers need.
type SubscriptionStore interface {
	SubscribersForRoom(ctx context.Context, roomID string) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// Job describes a slot that was freed by a deleted booking.
type Job struct {
	RoomID    string
	Date      string
	StartTime string
	EndTime   string
}

// Message renders the push payload for j.
func (j Job) Message() string {
	return fmt.Sprintf("Room %s is free on %s %s-%s", j.RoomID, j.Date, j.StartTime, j.EndTime)
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Job
	store   SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool with a queue of queueSize jobs.
func NewWorkerPool(size, queueSize int, store SubscriptionStore, webpushOptions *webpush.Options) *WorkerPool {
	if size < 1 {
		size = 1
	}
	if queueSize < size {
		queueSize = size
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, queueSize),
		store:   store,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			log.Printf("Worker %d processing room %s on %s", id, job.RoomID, job.Date)
			wp.notifyRoom(ctx, job)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a job without blocking. It reports false when the queue
// is full and the job was dropped.
func (wp *WorkerPool) Dispatch(job Job) bool {
	select {
	case wp.jobs <- job:
		return true
	default:
		log.Printf("Notification queue full, dropping room %s on %s", job.RoomID, job.Date)
		return false
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Job {
	return wp.jobs
}

func (wp *WorkerPool) notifyRoom(ctx context.Context, job Job) {
	subscriptions, err := wp.store.SubscribersForRoom(ctx, job.RoomID)
	if err != nil {
		log.Printf("Error fetching subscriptions for room %s: %v", job.RoomID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications for room %s", len(subscriptions), job.RoomID)

	payload := []byte(job.Message())
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
