package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"pickup-games/internal/logging"
	"pickup-games/internal/metrics"
)

const (
	defaultQueueSize       = 256
	defaultDeliveryTimeout = 10 * time.Second
)

var (
	// ErrQueueFull is returned when an event was dropped because the queue is saturated.
	ErrQueueFull = errors.New("notify: queue full")
	// ErrClosed is returned for events dispatched after Close.
	ErrClosed = errors.New("notify: dispatcher closed")
)

// Async hands events to a single background worker so callers never wait on delivery.
type Async struct {
	next     Dispatcher
	logger   *slog.Logger
	recorder *metrics.Recorder
	timeout  time.Duration

	mu     sync.Mutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

// NewAsync starts the delivery worker. Zero queueSize/timeout select defaults.
func NewAsync(next Dispatcher, logger *slog.Logger, recorder *metrics.Recorder, queueSize int, timeout time.Duration) *Async {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	a := &Async{
		next:     next,
		logger:   logger,
		recorder: recorder,
		timeout:  timeout,
		queue:    make(chan Event, queueSize),
		done:     make(chan struct{}),
	}
	go a.run()
	return a
}

// Dispatch enqueues event without blocking.
func (a *Async) Dispatch(_ context.Context, event Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- event:
		return nil
	default:
		a.recorder.RecordNotification(string(event.Type), ErrQueueFull)
		logging.Warn(a.logger, "notification dropped", logging.FieldEvent, string(event.Type), logging.FieldGameID, event.GameID)
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for queued ones to drain or ctx to end.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Async) run() {
	defer close(a.done)
	for event := range a.queue {
		a.deliver(event)
	}
}

func (a *Async) deliver(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	err := a.next.Dispatch(ctx, event)
	a.recorder.RecordNotification(string(event.Type), err)
	if err != nil {
		logging.Error(a.logger, "notification failed", err, logging.FieldEvent, string(event.Type), logging.FieldGameID, event.GameID)
	}
}
