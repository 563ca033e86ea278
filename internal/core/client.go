package core

// Client is a chat participant as seen by the core layer. The display
// name lives in the registry, not here: the hub looks the membership up
// fresh on every operation.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event
}

// NewClient constructs a client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 8),
	}
}
