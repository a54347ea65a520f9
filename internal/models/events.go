package models

import (
	"fmt"
	"strings"
	"time"
)

// Change actions
const (
	ActionCreated   = "CREATED"
	ActionUpdated   = "UPDATED"
	ActionDeleted   = "DELETED"
	ActionCompleted = "COMPLETED"
	ActionReordered = "REORDERED"
	ActionCleanedUp = "CLEANED_UP"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// EntityChangedEvent is published after a successful mutation so other
// sessions can refresh their copy of the entity list.
type EntityChangedEvent struct {
	BaseEvent
	Entity    string   `json:"entity"`
	Action    string   `json:"action"`
	EntityIDs []string `json:"entity_ids,omitempty"`
	SessionID string   `json:"session_id"`
}

// EventType builds the event type name, e.g. ORDER_COMPLETED
func EventType(entity, action string) string {
	return fmt.Sprintf("%s_%s", strings.ToUpper(entity), action)
}
