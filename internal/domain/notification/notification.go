package notification

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event names carried on the SSE stream.
const (
	EventRequestCreated = "peek.request"
	EventRequestSent    = "peek.request.sent"
	EventResolved       = "peek.resolved"
	EventSessionClosed  = "peek.session.closed"
)

var (
	ErrClientNotFound = errors.New("SSE client not found")
	ErrChannelFull    = errors.New("SSE message channel full")
)

// SSEClient represents an active SSE connection for one participant.
type SSEClient struct {
	ClientID      string
	ParticipantID uuid.UUID
	ConnectedAt   time.Time
	MessageChan   chan *SSEMessage
}

// NewSSEClient creates a new SSE client.
func NewSSEClient(clientID string, participantID uuid.UUID) *SSEClient {
	return &SSEClient{
		ClientID:      clientID,
		ParticipantID: participantID,
		ConnectedAt:   time.Now().UTC(),
		MessageChan:   make(chan *SSEMessage, 100),
	}
}

func (c *SSEClient) Close() {
	close(c.MessageChan)
}

// SSEMessage represents a message to be sent via SSE.
type SSEMessage struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewSSEMessage creates a message with a fresh id and timestamp.
func NewSSEMessage(event string, data json.RawMessage) *SSEMessage {
	return &SSEMessage{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
