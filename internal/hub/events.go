package hub

import (
	"mindmap/internal/domain"
)

// EventType names the SSE event
type EventType string

const (
	// EventFrame carries positions and the viewport transform for one frame
	EventFrame EventType = "frame"
	// EventChange reports a structural graph change
	EventChange EventType = "change"
	// EventSettled is sent when the layout stops moving
	EventSettled EventType = "settled"
	// EventPrompt asks the user for a name or a confirmation
	EventPrompt EventType = "prompt"
	// EventError surfaces a failure to the user
	EventError EventType = "error"
)

// Event is one message to connected clients
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Frame is the render state of one tick
type Frame struct {
	Nodes     []domain.Node    `json:"nodes"`
	Links     []domain.Link    `json:"links"`
	Transform domain.Transform `json:"transform"`
}

// ErrorPayload describes a surfaced failure
type ErrorPayload struct {
	Kind    domain.ErrorKind `json:"kind,omitempty"`
	Message string           `json:"message"`
}

// NewErrorEvent builds the error event for err
func NewErrorEvent(err error) Event {
	return Event{
		Type:    EventError,
		Payload: ErrorPayload{Kind: domain.KindOf(err), Message: err.Error()},
	}
}
