package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSignalementCreated       EventType = "signalement_created"
	EventSignalementStatusChanged EventType = "signalement_status_changed"
	EventValidationChanged        EventType = "validation_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	SignalementID int64       `json:"signalement_id"`
	ActorID       *int64      `json:"actor_id,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload"`
}

// SignalementCreatedPayload payload.
type SignalementCreatedPayload struct {
	UserID      int64  `json:"user_id"`
	StatusName  string `json:"status_name"`
	Description string `json:"description"`
}

// SignalementStatusChangedPayload payload. UserUID addresses the push
// recipient in the external identity space.
type SignalementStatusChangedPayload struct {
	OldStatus   string  `json:"old_status"`
	NewStatus   string  `json:"new_status"`
	Comment     string  `json:"comment,omitempty"`
	Description string  `json:"description"`
	UserUID     *string `json:"user_uid,omitempty"`
}

// ValidationChangedPayload payload.
type ValidationChangedPayload struct {
	OldStatus *string `json:"old_status,omitempty"`
	NewStatus string  `json:"new_status"`
	Note      *string `json:"note,omitempty"`
}
