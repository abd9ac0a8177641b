// Package audit records notable domain events. Publishing is
// best-effort: a failed emit is logged by the caller and never fails
// the operation that produced the event.
package audit

import "time"

// EventType names an auditable event.
type EventType string

const (
	EventPersonCreated   EventType = "person.created"
	EventPersonDeleted   EventType = "person.deleted"
	EventGroupCreated    EventType = "group.created"
	EventGroupDeleted    EventType = "group.deleted"
	EventImportStarted   EventType = "import.started"
	EventImportCancelled EventType = "import.cancelled"
	EventImportCompleted EventType = "import.completed"
	EventImportFailed    EventType = "import.failed"
)

// Event is a single audit record.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	EntityID   string    `json:"entity_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

// New builds an event stamped with the current time.
func New(t EventType) Event {
	return Event{Type: t, OccurredAt: time.Now().UTC()}
}

// WithEntity attaches the id of the entity the event concerns.
func (e Event) WithEntity(id string) Event {
	e.EntityID = id
	return e
}

// WithDetail attaches a free-form detail line.
func (e Event) WithDetail(detail string) Event {
	e.Detail = detail
	return e
}
