package domain

// WebSocket message types from client.
const (
	MsgTypeJoin      = "join"
	MsgTypeLeave     = "leave"
	MsgTypeHeartbeat = "heartbeat"
)

// WebSocket message types to client.
const (
	MsgTypeReady = "ready"
	MsgTypeError = "error"
)

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// JoinMessage is sent by a client to start watching a room's presence.
type JoinMessage struct {
	Type     string `json:"type"`
	Room     string `json:"room"`
	Username string `json:"username,omitempty"`
}

// LeaveMessage is sent by a client to stop watching a room.
type LeaveMessage struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

// ReadyMessage confirms a subscription to the client before any events.
type ReadyMessage struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

// ErrorMessage is sent when an error occurs.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewErrorMessage creates a new error message.
func NewErrorMessage(message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Message: message,
	}
}
