package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/events"
)

// ErrQueueFull is returned to the dispatcher when the worker cannot accept more events.
var ErrQueueFull = errors.New("notification queue full")

// ErrWorkerStopped is returned for events published after Stop.
var ErrWorkerStopped = errors.New("notification worker stopped")

const defaultQueueSize = 256

// EventConsumer handles events taken off the queue.
type EventConsumer interface {
	EventTypes() []events.EventType
	Handle(ctx context.Context, event events.Event) error
}

// NotificationWorker moves event handling off the request path. Events are
// queued by the dispatcher and consumed in order on a single goroutine.
type NotificationWorker struct {
	consumer EventConsumer
	logger   *zap.Logger
	queue    chan events.Event
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewNotificationWorker builds a worker. A non-positive size uses the default.
func NewNotificationWorker(consumer EventConsumer, logger *zap.Logger, size int) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if size <= 0 {
		size = defaultQueueSize
	}
	return &NotificationWorker{
		consumer: consumer,
		logger:   logger,
		queue:    make(chan events.Event, size),
		done:     make(chan struct{}),
	}
}

// Subscribe registers the worker on the dispatcher for every event the consumer handles.
func (w *NotificationWorker) Subscribe(dispatcher events.Dispatcher) {
	for _, eventType := range w.consumer.EventTypes() {
		dispatcher.Subscribe(eventType, w.enqueue)
	}
}

func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	select {
	case <-w.done:
		return ErrWorkerStopped
	default:
	}
	select {
	case w.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the consumer goroutine.
func (w *NotificationWorker) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop rejects new events, drains what is queued and waits for the consumer,
// or returns early when ctx expires.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.done) })
	finished := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *NotificationWorker) run() {
	defer w.wg.Done()
	for {
		select {
		case event := <-w.queue:
			w.handle(event)
		case <-w.done:
			for {
				select {
				case event := <-w.queue:
					w.handle(event)
				default:
					return
				}
			}
		}
	}
}

func (w *NotificationWorker) handle(event events.Event) {
	if err := w.consumer.Handle(context.Background(), event); err != nil {
		w.logger.Warn("notification handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}
