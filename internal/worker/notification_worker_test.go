package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/service"
)

type blockingConsumer struct {
	mu      sync.Mutex
	release chan struct{}
	seen    []string
}

func (b *blockingConsumer) EventTypes() []events.EventType {
	return []events.EventType{events.EventPaymentStatusChanged}
}

func (b *blockingConsumer) Handle(_ context.Context, event events.Event) error {
	<-b.release
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seen = append(b.seen, event.TicketID)
	return nil
}

func TestWorkerLogsNotifications(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	dispatcher := events.NewInMemoryDispatcher(logger)
	w := NewNotificationWorker(service.NewNotificationService(logger), logger, 8)
	w.Subscribe(dispatcher)
	w.Start()

	require.NoError(t, dispatcher.Publish(context.Background(), events.New(events.EventTicketCreated, "t-1", events.Actor{}, nil)))
	require.NoError(t, dispatcher.Publish(context.Background(), events.New(events.EventPaymentStatusChanged, "t-1", events.Actor{}, nil)))
	require.NoError(t, w.Stop(context.Background()))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "TicketCreated", entries[0].Message)
	assert.Equal(t, "PaymentStatusChanged", entries[1].Message)
	assert.Equal(t, "t-1", entries[1].ContextMap()["ticket_id"])
}

func TestWorkerDropsWhenQueueFull(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)
	consumer := &blockingConsumer{release: make(chan struct{})}

	dispatcher := events.NewInMemoryDispatcher(logger)
	w := NewNotificationWorker(consumer, logger, 1)
	w.Subscribe(dispatcher)

	// Not started yet: the first event fills the queue, the second is dropped.
	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.New(events.EventPaymentStatusChanged, "t-1", events.Actor{}, nil)))
	require.NoError(t, dispatcher.Publish(ctx, events.New(events.EventPaymentStatusChanged, "t-2", events.Actor{}, nil)))
	assert.Equal(t, 1, logs.FilterMessage("event handler failed").Len())

	w.Start()
	close(consumer.release)
	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))

	assert.Equal(t, []string{"t-1"}, consumer.seen)
	assert.ErrorIs(t, w.enqueue(ctx, events.Event{}), ErrWorkerStopped)
}

func TestWorkerRejectsEventsAfterStop(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)
	dispatcher := events.NewInMemoryDispatcher(logger)
	w := NewNotificationWorker(&blockingConsumer{release: make(chan struct{})}, logger, 8)
	w.Subscribe(dispatcher)

	ctx := context.Background()
	require.NoError(t, w.Stop(ctx))

	err := w.enqueue(ctx, events.Event{})
	assert.ErrorIs(t, err, ErrWorkerStopped)
	assert.NotErrorIs(t, err, ErrQueueFull)

	require.NoError(t, dispatcher.Publish(ctx, events.New(events.EventPaymentStatusChanged, "t-1", events.Actor{}, nil)))
	require.Equal(t, 1, logs.FilterMessage("event handler failed").Len())
	assert.Equal(t, ErrWorkerStopped.Error(), logs.All()[0].ContextMap()["error"])
}
