package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"smartbreath-backend/internal/model"
)

// NotificationSender abstracts the web push transport so tests can stub it.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender sends through the webpush library.
type WebPushSender struct{}

func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool delivers "new measurement" pushes to machine owners off the
// request path.
type WorkerPool struct {
	size    int
	jobs    chan string
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan string, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the workers; they run until ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.run(ctx, i)
	}
}

func (wp *WorkerPool) run(ctx context.Context, id int) {
	log.Printf("notification worker %d started", id)
	for {
		select {
		case machineID := <-wp.jobs:
			wp.notifyOwner(ctx, machineID)
		case <-ctx.Done():
			log.Printf("notification worker %d stopped", id)
			return
		}
	}
}

// Dispatch queues a notification job for a machine id. Non-blocking: if the
// pool is saturated the job is dropped, notifications are best-effort.
func (wp *WorkerPool) Dispatch(machineID string) {
	select {
	case wp.jobs <- machineID:
	default:
		log.Printf("notification queue full, dropping job for machine %s", machineID)
	}
}

// notifyOwner resolves the machine's owner and pushes a message to each of
// the owner's subscriptions. Unowned machines notify no one.
func (wp *WorkerPool) notifyOwner(ctx context.Context, machineID string) {
	var machine model.Machine
	if err := wp.db.WithContext(ctx).First(&machine, "id = ?", machineID).Error; err != nil {
		log.Printf("notify: loading machine %s: %v", machineID, err)
		return
	}
	if machine.OwnerID == nil {
		return
	}

	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("user_id = ?", *machine.OwnerID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("notify: loading subscriptions for machine %s: %v", machineID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload := []byte(fmt.Sprintf("New measurement recorded on %s", machine.DeviceName))
	for _, sub := range subscriptions {
		wp.push(ctx, sub, payload)
	}
}

func (wp *WorkerPool) push(ctx context.Context, sub model.PushSubscription, payload []byte) {
	resp, err := wp.sender.Send(payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}, wp.webpush)
	if err != nil {
		log.Printf("notify: pushing to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// The push service reports dead subscriptions with 404/410; drop them so
	// we stop retrying forever.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("notify: deleting expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
