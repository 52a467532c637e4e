package amqp

import (
	"encoding/json"
	"time"
)

// EventMessage is a lightweight ledger mutation notice. It carries only the
// entity kind, action and id; consumers fetch the full record from the
// database when they need it.
type EventMessage struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEventMessage(entity, action, id string) *EventMessage {
	return &EventMessage{
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
