package amqp

import (
	"encoding/json"
	"time"
)

// LedgerChangedMessage notifies the backup worker that a mutation was
// applied. It carries only the operation and the affected id; the
// worker reads current state from the database.
type LedgerChangedMessage struct {
	Op        string    `json:"op"` // add, remove, clear, add-category, import
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a change message for an operation.
func NewLedgerChangedMessage(op, id string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Op:        op,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON creates a message from JSON bytes.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
