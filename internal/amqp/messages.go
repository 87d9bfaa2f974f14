package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry change operations carried on the queue.
const (
	OpCreated       = "created"
	OpUpdated       = "updated"
	OpDeleted       = "deleted"
	OpSeriesDeleted = "series-deleted"
	OpPaidToggled   = "paid-toggled"
)

// EntryChangedMessage notifies workers that the budget data set changed.
// It carries only the entry id and the operation; consumers reload whatever
// state they need from the store.
type EntryChangedMessage struct {
	ID        uuid.UUID `json:"id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryChangedMessage(id uuid.UUID, op string) *EntryChangedMessage {
	return &EntryChangedMessage{
		ID:        id,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (m *EntryChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntryChangedMessageFromJSON(data []byte) (*EntryChangedMessage, error) {
	var msg EntryChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
