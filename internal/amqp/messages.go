package amqp

import (
	"encoding/json"
	"time"
)

// Record mutation actions carried by event messages.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// RecordEventMessage announces a work-log record mutation to downstream
// consumers (audit, reporting). It carries identifiers only; consumers
// fetch the record themselves if they need the fields.
type RecordEventMessage struct {
	Action    string    `json:"action"`
	PersonID  int       `json:"person_id"`
	RecordID  string    `json:"record_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordEventMessage(action string, personID int, recordID string) *RecordEventMessage {
	return &RecordEventMessage{
		Action:    action,
		PersonID:  personID,
		RecordID:  recordID,
		Timestamp: time.Now(),
	}
}

func (m *RecordEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordEventMessageFromJSON(data []byte) (*RecordEventMessage, error) {
	var msg RecordEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
