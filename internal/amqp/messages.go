package amqp

import (
	"encoding/json"
	"time"

	"moneyflow/internal/core"
)

// ChangeRoutingKey is the routing key every change message is published
// with. Each consuming process binds its own queue to it.
const ChangeRoutingKey = "finance.change"

// ChangeMessage is the wire form of a core.Change. It carries ids only;
// consumers fetch current data from their own source.
type ChangeMessage struct {
	core.Change
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage stamps c with the current time.
func NewChangeMessage(c core.Change) *ChangeMessage {
	return &ChangeMessage{
		Change:    c,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message and rejects bodies without an
// entity or operation.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Entity == "" || msg.Op == "" {
		return nil, errMalformedMessage
	}
	return &msg, nil
}
