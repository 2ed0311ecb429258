package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"calibration-backend/internal/model"
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

// WorkerPool manages a pool of workers notifying subscribers about
// completed calibration sessions.
type WorkerPool struct {
	size    int
	jobs    chan int
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int, size), // Buffered channel
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case sessionID := <-wp.jobs:
			log.Printf("Worker %d processing session %d", id, sessionID)
			wp.sendNotificationsForSession(ctx, sessionID)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a completed session to the worker pool.
func (wp *WorkerPool) Dispatch(sessionID int) {
	wp.jobs <- sessionID
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan int {
	return wp.jobs
}

// sendNotificationsForSession fetches subscriptions and sends notifications
// for a completed calibration session.
func (wp *WorkerPool) sendNotificationsForSession(ctx context.Context, sessionID int) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_session_mapping ssm ON ssm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("ssm.calibration_session_id = ?", sessionID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for session %d: %v", sessionID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications for session %d", len(subscriptions), sessionID)

	var session model.CalibrationSession
	sessionLabel := fmt.Sprintf("%d", sessionID)
	if err := wp.db.WithContext(ctx).
		Select("printer_name").
		First(&session, sessionID).Error; err != nil {
		log.Printf("Error fetching session %d: %v", sessionID, err)
	} else if session.PrinterName != nil && *session.PrinterName != "" {
		sessionLabel = fmt.Sprintf("%d (%s)", sessionID, *session.PrinterName)
	}

	message := fmt.Sprintf("Calibration session %s is complete!", sessionLabel)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	// Manually construct the webpush.Subscription object
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

	// Handle expired subscriptions
	if resp.StatusCode == 410 {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
