package domain

import "time"

type EventType string

const (
	EventSessionStarted   EventType = "session_started"
	EventItemToggled      EventType = "item_toggled"
	EventNotesUpdated     EventType = "notes_updated"
	EventPhotoAttached    EventType = "photo_attached"
	EventSessionCompleted EventType = "session_completed"
	EventNotification     EventType = "notification"
)

// ActivityRecord is an append-only audit entry for a session.
type ActivityRecord struct {
	ID        int64
	SessionID string
	UserID    string
	EventType EventType
	Payload   map[string]any
	CreatedAt time.Time
}
