package model

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventPacsCreated    EventType = "pacs.created"
	EventPacsUpdated    EventType = "pacs.updated"
	EventPacsReordered  EventType = "pacs.reordered"
	EventPacsDeleted    EventType = "pacs.deleted"
	EventScheduleCreate EventType = "schedule.created"
	EventScheduleUpdate EventType = "schedule.updated"
	EventScheduleDelete EventType = "schedule.deleted"
)

// Event is a notification about a committed change, published after the store
// write succeeded.
type Event struct {
	ID         uuid.UUID   `json:"id"`
	Type       EventType   `json:"type"`
	ResourceID string      `json:"resourceId,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// NewEvent stamps a new event.
func NewEvent(t EventType, resourceID string, data interface{}) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       t,
		ResourceID: resourceID,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}
