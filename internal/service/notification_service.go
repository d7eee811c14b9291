package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/events"
)

// NotificationService records dispatch activity for domain events.
type NotificationService struct {
	logger   *zap.Logger
	handlers map[events.EventType]events.EventHandler
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &NotificationService{logger: logger}
	n.handlers = map[events.EventType]events.EventHandler{
		events.EventTicketCreated:        n.handleTicketCreated,
		events.EventTicketStatusChanged:  n.handleTicketStatusChanged,
		events.EventTicketSupportChanged: n.handleTicketSupportChanged,
		events.EventPaymentStatusChanged: n.handlePaymentStatusChanged,
	}
	return n
}

// EventTypes lists the events this service reacts to.
func (n *NotificationService) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketSupportChanged,
		events.EventPaymentStatusChanged,
	}
}

// Handle routes an event to its handler. Unknown types are ignored.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	handler, ok := n.handlers[event.Type]
	if !ok {
		return nil
	}
	return handler(ctx, event)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", n.fields(event)...)
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", n.fields(event)...)
	return nil
}

func (n *NotificationService) handleTicketSupportChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketSupportChanged", n.fields(event)...)
	return nil
}

func (n *NotificationService) handlePaymentStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("PaymentStatusChanged", n.fields(event)...)
	return nil
}

func (n *NotificationService) fields(event events.Event) []zap.Field {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload),
	}
	if event.Actor.OperatorID != nil {
		fields = append(fields, zap.String("operator_id", *event.Actor.OperatorID))
	}
	return fields
}
