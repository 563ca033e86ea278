package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoin asks to enter a room under a display name.
	CommandJoin CommandKind = iota
	// CommandSendMessage delivers a chat message to room participants.
	CommandSendMessage
)

// Command represents an action requested by a client. Seq is the
// client-chosen sequence number echoed back in the acknowledgment.
type Command struct {
	Kind     CommandKind
	Seq      int64
	Username string
	Room     string
	Body     string
}
