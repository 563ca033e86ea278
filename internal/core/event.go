package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventMessage carries a chat message or an Admin notice.
	EventMessage EventKind = iota
	// EventRoomData carries the current roster of a room.
	EventRoomData
	// EventAck acknowledges a client command, successfully or not.
	EventAck
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Room    string
	Message Message
	Users   []string   // for EventRoomData
	Seq     int64      // for EventAck
	Error   *CoreError // non-nil for failed acks
}
