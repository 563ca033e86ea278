package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client. Seq is
// chosen by the client and echoed back in the acknowledgment.
type Inbound struct {
	Type string          `json:"type"`
	Seq  int64           `json:"seq,omitempty"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin = "join"
	InboundTypeMsg  = "message"

	OutboundTypeEvent = "event"
	OutboundTypeAck   = "ack"
	OutboundTypeError = "error"

	EventNameMessage  = "message"
	EventNameRoomData = "roomData"
)

// JoinData requests to enter a room under a display name.
type JoinData struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// MsgData is a chat message from the client; the sender is implicit
// from the connection's current membership.
type MsgData struct {
	Body string `json:"body"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Seq   int64  `json:"seq,omitempty"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventMessage is a chat message or Admin notice broadcast to a room.
type EventMessage struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// EventRoomData is the roster snapshot of a room.
type EventRoomData struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
