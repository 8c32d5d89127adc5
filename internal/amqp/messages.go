package amqp

import (
	"encoding/json"
	"time"
)

// StateChangedMessage tells subscribers that the expense state changed.
// Consumers reload the state themselves; the message carries no expense data.
type StateChangedMessage struct {
	Operation string    `json:"operation"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func NewStateChangedMessage(op string, count int) *StateChangedMessage {
	return &StateChangedMessage{
		Operation: op,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *StateChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func StateChangedMessageFromJSON(data []byte) (*StateChangedMessage, error) {
	var msg StateChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
