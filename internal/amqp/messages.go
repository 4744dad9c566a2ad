package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds for entry changes.
const (
	EventEntryCreated = "entry.created"
	EventEntryUpdated = "entry.updated"
	EventEntryDeleted = "entry.deleted"
)

// EntryEvent is a lightweight change notification. It carries only the
// identifiers; consumers re-read current state from the store, so a stale or
// replayed event converges to the same result.
type EntryEvent struct {
	Kind       string    `json:"kind"`
	EntryID    string    `json:"entry_id"`
	OwnerEmail string    `json:"owner_email"`
	OccurredOn time.Time `json:"occurred_on"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewEntryEvent creates a change notification stamped with the current time.
func NewEntryEvent(kind, entryID, ownerEmail string, occurredOn time.Time) *EntryEvent {
	return &EntryEvent{
		Kind:       kind,
		EntryID:    entryID,
		OwnerEmail: ownerEmail,
		OccurredOn: occurredOn,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *EntryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EntryEventFromJSON creates an event from JSON bytes
func EntryEventFromJSON(data []byte) (*EntryEvent, error) {
	var e EntryEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
