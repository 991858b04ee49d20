package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"relief-ops-backend/config"
	"relief-ops-backend/internal/model"
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

// Store is the subset of persistence the workers need.
type Store interface {
	GetDisaster(ctx context.Context, id int64) (*model.Disaster, error)
	SubscriptionsForDisaster(ctx context.Context, disasterID int64) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// Job announces that a disaster changed tier.
type Job struct {
	DisasterID   int64
	PreviousTier int
	Tier         int
}

// Payload is the JSON body delivered to browsers.
type Payload struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	DisasterID int64  `json:"disaster_id"`
	Tier       int    `json:"tier"`
}

// Options builds webpush options from configuration, or nil when push is not configured.
func Options(cfg config.PushConfig) *webpush.Options {
	if !cfg.Enabled() {
		return nil
	}
	return &webpush.Options{
		VAPIDPublicKey:  cfg.PublicKey,
		VAPIDPrivateKey: cfg.PrivateKey,
		Subscriber:      cfg.Subject,
		TTL:             cfg.TTL,
	}
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Job
	store   Store
	webpush *webpush.Options
	sender  NotificationSender
	log     *zap.Logger
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new worker pool. A nil webpushOptions disables delivery.
func NewWorkerPool(size int, s Store, webpushOptions *webpush.Options, log *zap.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, size*16),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log.Named("push"),
	}
}

// Enabled reports whether notifications are actually delivered.
func (wp *WorkerPool) Enabled() bool {
	return wp.webpush != nil
}

// Start launches the worker goroutines. They exit when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	wp.log.Debug("worker started", zap.Int("worker", id))
	for {
		select {
		case job := <-wp.jobs:
			wp.sendNotificationsForDisaster(ctx, job)
		case <-ctx.Done():
			wp.log.Debug("worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Dispatch queues a job without blocking. It reports whether the job was queued;
// jobs are dropped when push is disabled or the queue is full.
func (wp *WorkerPool) Dispatch(job Job) bool {
	if !wp.Enabled() {
		wp.log.Debug("push disabled, dropping notification", zap.Int64("disaster_id", job.DisasterID))
		return false
	}
	select {
	case wp.jobs <- job:
		return true
	default:
		wp.log.Warn("notification queue full, dropping job",
			zap.Int64("disaster_id", job.DisasterID), zap.Int("tier", job.Tier))
		return false
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Job {
	return wp.jobs
}

func (wp *WorkerPool) sendNotificationsForDisaster(ctx context.Context, job Job) {
	log := wp.log.With(zap.Int64("disaster_id", job.DisasterID), zap.Int("tier", job.Tier))

	subscriptions, err := wp.store.SubscriptionsForDisaster(ctx, job.DisasterID)
	if err != nil {
		log.Error("fetching subscriptions failed", zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	label := fmt.Sprintf("Disaster #%d", job.DisasterID)
	if d, err := wp.store.GetDisaster(ctx, job.DisasterID); err != nil {
		log.Warn("disaster lookup failed, using id", zap.Error(err))
	} else if d.Name != "" {
		label = d.Name
	}

	payload, err := json.Marshal(Payload{
		Title:      fmt.Sprintf("%s escalated to tier %d", label, job.Tier),
		Body:       fmt.Sprintf("Response tier raised from %d to %d.", job.PreviousTier, job.Tier),
		DisasterID: job.DisasterID,
		Tier:       job.Tier,
	})
	if err != nil {
		log.Error("encoding payload failed", zap.Error(err))
		return
	}

	log.Info("sending notifications", zap.Int("subscriptions", len(subscriptions)))
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
		wp.log.Warn("sending notification failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		wp.log.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.log.Error("deleting expired subscription failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}
