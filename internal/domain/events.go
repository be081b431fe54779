package domain

import "time"

const eventIDPrefix = "evt_"

// Event is an immutable fact raised by an aggregate on a significant state
// change. Every event carries a unique identifier and occurrence time used
// for idempotent consumption and tracing.
type Event interface {
	EventName() string
	EventID() string
	OccurredAt() time.Time
}

// EventMeta supplies the Event identity fields; concrete events embed it.
type EventMeta struct {
	ID string
	At time.Time
}

// NewEventMeta stamps a fresh event identity at the given time.
func NewEventMeta(at time.Time) EventMeta {
	return EventMeta{ID: NewPrefixedID(eventIDPrefix), At: at.UTC()}
}

// EventID returns the unique event identifier.
func (m EventMeta) EventID() string { return m.ID }

// OccurredAt returns when the event was raised.
func (m EventMeta) OccurredAt() time.Time { return m.At }
