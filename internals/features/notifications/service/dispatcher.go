package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"majibill_backend/internals/features/notifications/sms"
	"majibill_backend/internals/helpers/apperr"
)

var (
	ErrQueueFull   = apperr.Transient("NOTIFY_QUEUE_FULL", "notification queue is full")
	ErrQueueClosed = apperr.Transient("NOTIFY_QUEUE_CLOSED", "notification queue is closed")
)

type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	Backoff     time.Duration
	SendTimeout time.Duration
}

// Dispatcher is the in-process job queue plus the worker pool that drains it.
type Dispatcher struct {
	sender   sms.Sender
	recorder Recorder
	cfg      DispatcherConfig

	mu     sync.RWMutex
	closed bool
	jobs   chan Job
	wg     sync.WaitGroup
}

func NewDispatcher(sender sms.Sender, recorder Recorder, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 128
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}
	return &Dispatcher{
		sender:   sender,
		recorder: recorder,
		cfg:      cfg,
		jobs:     make(chan Job, cfg.QueueSize),
	}
}

// Start launches the workers. They exit when Stop drains the queue.
func (d *Dispatcher) Start() {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go func(worker int) {
			defer d.wg.Done()
			for job := range d.jobs {
				d.Deliver(context.Background(), job)
			}
			log.Printf("[NOTIFY] worker %d stopped", worker)
		}(i)
	}
	log.Printf("[NOTIFY] dispatcher started workers=%d queue=%d attempts=%d", d.cfg.Workers, d.cfg.QueueSize, d.cfg.MaxAttempts)
}

func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) Enqueue(ctx context.Context, job Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Deliver sends one job with retries and records the outcome.
// It never returns an error: the primary write already happened.
func (d *Dispatcher) Deliver(ctx context.Context, job Job) string {
	var lastErr error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
		lastErr = d.sender.Send(sendCtx, job.Recipient, job.Message)
		cancel()
		if lastErr == nil {
			break
		}
		log.Printf("[NOTIFY] job=%s kind=%s attempt=%d/%d failed: %v", job.ID, job.Kind, attempt, d.cfg.MaxAttempts, lastErr)
		if !isRetryable(lastErr) || attempt == d.cfg.MaxAttempts {
			break
		}
		if d.cfg.Backoff > 0 {
			select {
			case <-time.After(time.Duration(attempt) * d.cfg.Backoff):
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = d.cfg.MaxAttempts
			}
		}
	}

	outcome := Outcome(lastErr)
	if d.recorder != nil {
		if err := d.recorder.Record(ctx, job, outcome); err != nil {
			log.Printf("[NOTIFY] job=%s record outcome failed: %v", job.ID, err)
		}
	}
	return outcome
}

// Outcome renders the stored delivery status.
func Outcome(err error) string {
	if err == nil {
		return "sent"
	}
	return "failed: " + err.Error()
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return apperr.IsRetryable(err)
}
