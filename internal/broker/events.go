package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"komal-desk/internal/models"
	"komal-desk/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing change events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// NewEntityChanged builds a change event with a fresh id
func NewEntityChanged(sessionID, entity, action string, ids ...string) *models.EntityChangedEvent {
	return &models.EntityChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventType(entity, action),
			Timestamp: time.Now(),
		},
		Entity:    entity,
		Action:    action,
		EntityIDs: ids,
		SessionID: sessionID,
	}
}

// PublishEntityChanged publishes an EntityChanged event keyed by entity kind
func (ep *EventPublisher) PublishEntityChanged(ctx context.Context, event *models.EntityChangedEvent) error {
	return ep.producer.PublishEvent(ctx, event.Entity, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onEntityChanged func(context.Context, *models.EntityChangedEvent) error
	logger          *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnEntityChanged registers a handler for EntityChanged events
func (eh *EventHandler) OnEntityChanged(handler func(context.Context, *models.EntityChangedEvent) error) {
	eh.onEntityChanged = handler
}

// HandleMessage decodes a message and routes it to the registered handler
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var event models.EntityChangedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.Entity == "" {
		eh.logger.Debug("Unhandled event type", zap.String("event_type", event.EventType))
		return nil
	}

	eh.logger.Debug("Handling event",
		zap.String("event_type", event.EventType),
		zap.String("event_id", event.EventID))

	if eh.onEntityChanged != nil {
		return eh.onEntityChanged(ctx, &event)
	}
	return nil
}
