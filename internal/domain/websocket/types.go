// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing      EventType = "ping"
	EventTypePong      EventType = "pong"
	EventTypeConnected EventType = "connected"
	EventTypeError     EventType = "error"

	// Deal events (server -> client)
	EventTypeDealCreated      EventType = "deal:created"
	EventTypeDealStageChanged EventType = "deal:stage_changed"
	EventTypeDealFeedback     EventType = "deal:feedback"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	ID        string    `json:"id,omitempty"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DealEventData is pushed to both parties of a deal. Stage is the stage after
// the change; PreviousStage is set on stage changes only.
type DealEventData struct {
	DealID         string `json:"dealId"`
	BuyerAccountID string `json:"buyerAccountId,omitempty"`
	VendorID       string `json:"vendorId,omitempty"`
	Stage          string `json:"stage,omitempty"`
	PreviousStage  string `json:"previousStage,omitempty"`
	Quantity       string `json:"quantity,omitempty"`
	Rating         int    `json:"rating,omitempty"`
}

// Recipients lists the account ids that should receive the event.
func (d *DealEventData) Recipients() []string {
	out := make([]string, 0, 2)
	if d.BuyerAccountID != "" {
		out = append(out, d.BuyerAccountID)
	}
	if d.VendorID != "" && d.VendorID != d.BuyerAccountID {
		out = append(out, d.VendorID)
	}
	return out
}

func NewMessage(eventType EventType, data any) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
