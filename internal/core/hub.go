package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Hub coordinates the chat: it owns the membership registry, consumes
// client commands, and fans resulting events out to room members.
//
// All registry mutation happens on the Run goroutine. Commands from
// every connection are drained into one inbox, so two concurrent joins
// for the same name in the same room resolve to exactly one success,
// and a disconnect is always serialized against in-flight commands
// from the same connection.
type Hub struct {
	registry   *Registry
	log        *zerolog.Logger
	register   chan *Client
	unregister chan *Client
	inbox      chan envelope
}

type envelope struct {
	client *Client
	cmd    *Command
}

// NewHub creates a new chat hub instance.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		registry:   NewRegistry(),
		log:        logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbox:      make(chan envelope, 64),
	}
}

// RegisterClient makes the hub aware of a new connection. The client is
// not in any room until its join command succeeds.
func (h *Hub) RegisterClient(c *Client) {
	h.register <- c
}

// UnregisterClient removes a connection. If it had a membership, the
// remaining room members get a leave notice and a fresh roster.
func (h *Hub) UnregisterClient(c *Client) {
	h.unregister <- c
}

// UsersInRoom reports the current roster of a room in join order.
func (h *Hub) UsersInRoom(room string) []string {
	return h.registry.UsersInRoom(room)
}

// Run processes registrations and commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	clients := make(map[string]*Client)
	stops := make(map[string]chan struct{})

	for {
		select {
		case <-ctx.Done():
			for _, stop := range stops {
				close(stop)
			}
			return
		case c := <-h.register:
			clients[c.ID] = c
			stop := make(chan struct{})
			stops[c.ID] = stop
			go h.pump(c, stop)
		case c := <-h.unregister:
			if stop, ok := stops[c.ID]; ok {
				close(stop)
				delete(stops, c.ID)
			}
			delete(clients, c.ID)
			h.handleDisconnect(clients, c)
		case env := <-h.inbox:
			if _, ok := clients[env.client.ID]; !ok {
				// Command raced with a disconnect; the membership is
				// already gone, so there is nothing to do.
				continue
			}
			h.handleCommand(clients, env.client, env.cmd)
		}
	}
}

// pump forwards one client's commands into the shared inbox until the
// client is unregistered.
func (h *Hub) pump(c *Client, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case cmd := <-c.Commands:
			select {
			case h.inbox <- envelope{client: c, cmd: cmd}:
			case <-stop:
				return
			}
		}
	}
}

func (h *Hub) handleCommand(clients map[string]*Client, c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoin:
		h.handleJoin(clients, c, cmd)
	case CommandSendMessage:
		h.handleSendMessage(clients, c, cmd)
	}
}

func (h *Hub) handleJoin(clients map[string]*Client, c *Client, cmd *Command) {
	m, prev, cerr := h.registry.Join(c.ID, cmd.Username, cmd.Room)
	if cerr != nil {
		h.sendTo(clients, c.ID, &Event{Kind: EventAck, Seq: cmd.Seq, Error: cerr})
		return
	}

	// A re-join without an intervening leave replaces the old
	// membership; the old room has to learn about the departure.
	if prev != nil && prev.Room != "" {
		h.notifyLeft(clients, *prev)
	}

	h.log.Debug().Str("conn_id", c.ID).Str("username", m.Username).Str("room", m.Room).Msg("user joined room")

	notice := NewMessage(AdminSender, fmt.Sprintf("%s has joined", m.Username))
	h.broadcast(clients, m.Room, &Event{Kind: EventMessage, Room: m.Room, Message: notice}, c.ID)
	h.broadcast(clients, m.Room, &Event{
		Kind:  EventRoomData,
		Room:  m.Room,
		Users: h.registry.UsersInRoom(m.Room),
	}, "")
	h.sendTo(clients, c.ID, &Event{Kind: EventAck, Seq: cmd.Seq})
}

func (h *Hub) handleSendMessage(clients map[string]*Client, c *Client, cmd *Command) {
	m, ok := h.registry.Get(c.ID)
	if !ok {
		h.sendTo(clients, c.ID, &Event{
			Kind:  EventAck,
			Seq:   cmd.Seq,
			Error: coreError(ErrCodeNotJoined, ErrNotJoined.Error()),
		})
		return
	}

	msg := NewMessage(m.Username, cmd.Body)
	h.broadcast(clients, m.Room, &Event{Kind: EventMessage, Room: m.Room, Message: msg}, "")
	h.sendTo(clients, c.ID, &Event{Kind: EventAck, Seq: cmd.Seq})
}

func (h *Hub) handleDisconnect(clients map[string]*Client, c *Client) {
	m, ok := h.registry.Leave(c.ID)
	if !ok {
		// Disconnected before joining: no events, no registry change.
		return
	}
	h.log.Debug().Str("conn_id", c.ID).Str("username", m.Username).Str("room", m.Room).Msg("user left room")
	h.notifyLeft(clients, m)
}

// notifyLeft tells the remaining members of m.Room that m.Username is
// gone: leave notice first, fresh roster second.
func (h *Hub) notifyLeft(clients map[string]*Client, m Membership) {
	notice := NewMessage(AdminSender, fmt.Sprintf("%s has left", m.Username))
	h.broadcast(clients, m.Room, &Event{Kind: EventMessage, Room: m.Room, Message: notice}, "")
	h.broadcast(clients, m.Room, &Event{
		Kind:  EventRoomData,
		Room:  m.Room,
		Users: h.registry.UsersInRoom(m.Room),
	}, "")
}

// broadcast delivers event to every connection in room except exclude.
// Delivery is best-effort: a recipient whose buffer is full is skipped
// so one slow connection never stalls the rest.
func (h *Hub) broadcast(clients map[string]*Client, room string, event *Event, exclude string) {
	for _, connID := range h.registry.ConnsInRoom(room) {
		if connID == exclude {
			continue
		}
		h.sendTo(clients, connID, event)
	}
}

func (h *Hub) sendTo(clients map[string]*Client, connID string, event *Event) {
	c, ok := clients[connID]
	if !ok {
		return
	}
	select {
	case c.Events <- event:
	default:
		h.log.Warn().Str("conn_id", connID).Msg("dropping event for slow consumer")
	}
}
