package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"tempo/internal/core"
)

// Routing keys, also used as the event type.
const (
	EventActivityChanged = "activity.changed"
	EventBackupCreated   = "backup.created"
)

// Event is the JSON body of every message on the exchange. Fields not relevant
// to Type are omitted.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// activity.changed
	Op              string `json:"op,omitempty"`
	ActivityID      int64  `json:"activity_id,omitempty"`
	Activity        string `json:"activity,omitempty"`
	Date            string `json:"date,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`

	// backup.created
	BackupName string `json:"backup_name,omitempty"`
}

// NewActivityChangedEvent describes a create, update or delete of rec.
func NewActivityChangedEvent(op string, rec core.ActivityRecord) *Event {
	return &Event{
		Type:            EventActivityChanged,
		Timestamp:       time.Now().UTC(),
		Op:              op,
		ActivityID:      rec.ID,
		Activity:        rec.Activity,
		Date:            rec.Date.String(),
		DurationMinutes: rec.DurationMinutes,
	}
}

func NewBackupCreatedEvent(name string, date core.Date) *Event {
	return &Event{
		Type:       EventBackupCreated,
		Timestamp:  time.Now().UTC(),
		Date:       date.String(),
		BackupName: name,
	}
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event and rejects unknown types.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Type {
	case EventActivityChanged, EventBackupCreated:
		return &e, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
}
