package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"stockcount-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishScanRecorded publishes ScanRecorded event
func (ep *EventPublisher) PublishScanRecorded(ctx context.Context, event *models.ScanRecordedEvent) error {
	key := fmt.Sprintf("invoice-%s", event.InvoiceNumber)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishSessionClosed publishes SessionClosed event
func (ep *EventPublisher) PublishSessionClosed(ctx context.Context, event *models.SessionClosedEvent) error {
	key := fmt.Sprintf("invoice-%s", event.InvoiceNumber)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishItemsImported publishes ItemsImported event
func (ep *EventPublisher) PublishItemsImported(ctx context.Context, event *models.ItemsImportedEvent) error {
	key := fmt.Sprintf("invoice-%s", event.InvoiceNumber)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onScanRecorded  func(context.Context, *models.ScanRecordedEvent) error
	onSessionClosed func(context.Context, *models.SessionClosedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnScanRecorded registers a handler for ScanRecorded events
func (eh *EventHandler) OnScanRecorded(handler func(context.Context, *models.ScanRecordedEvent) error) {
	eh.onScanRecorded = handler
}

// OnSessionClosed registers a handler for SessionClosed events
func (eh *EventHandler) OnSessionClosed(handler func(context.Context, *models.SessionClosedEvent) error) {
	eh.onSessionClosed = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeScanRecorded:
		if eh.onScanRecorded != nil {
			var event models.ScanRecordedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ScanRecorded event: %w", err)
			}
			return eh.onScanRecorded(ctx, &event)
		}

	case models.EventTypeSessionClosed:
		if eh.onSessionClosed != nil {
			var event models.SessionClosedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SessionClosed event: %w", err)
			}
			return eh.onSessionClosed(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
