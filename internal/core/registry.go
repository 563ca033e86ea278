package core

import (
	"strings"
	"sync"
)

// Membership binds one connection to one username within one room.
type Membership struct {
	ConnID   string
	Username string
	Room     string
}

// Registry is the in-memory membership table: connection id ->
// (username, room). It enforces per-room username uniqueness with
// case-sensitive exact matching and keeps rosters in join order.
//
// Registry is safe for concurrent use, although under the hub all
// mutations already arrive serialized on a single goroutine.
type Registry struct {
	mu      sync.RWMutex
	members map[string]Membership
	order   []string // conn ids in join order
}

// NewRegistry constructs an empty membership registry.
func NewRegistry() *Registry {
	return &Registry{
		members: make(map[string]Membership),
	}
}

// Join validates and inserts a membership for connID. Username and room
// are trimmed of surrounding whitespace; both must be non-empty after
// trimming and the username must not already be present in the room.
// A prior membership for the same connection is replaced; the removed
// membership is returned through prev so callers can notify its room.
func (r *Registry) Join(connID, username, room string) (m Membership, prev *Membership, cerr *CoreError) {
	username = strings.TrimSpace(username)
	room = strings.TrimSpace(room)

	if username == "" || room == "" {
		return Membership{}, nil, coreError(ErrCodeInvalidInput, ErrInvalidInput.Error())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		other := r.members[id]
		if id != connID && other.Room == room && other.Username == username {
			return Membership{}, nil, coreError(ErrCodeNameTaken, ErrNameTaken.Error())
		}
	}

	if old, ok := r.members[connID]; ok {
		prev = &old
		r.removeLocked(connID)
	}

	m = Membership{ConnID: connID, Username: username, Room: room}
	r.members[connID] = m
	r.order = append(r.order, connID)
	return m, prev, nil
}

// Leave removes and returns the membership for connID. A connection
// that never joined is a no-op, not an error.
func (r *Registry) Leave(connID string) (Membership, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[connID]
	if !ok {
		return Membership{}, false
	}
	r.removeLocked(connID)
	return m, true
}

// Get returns the current membership for connID, if any.
func (r *Registry) Get(connID string) (Membership, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.members[connID]
	return m, ok
}

// UsersInRoom returns the usernames registered in room, in join order.
// Unknown rooms yield an empty slice.
func (r *Registry) UsersInRoom(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if m := r.members[id]; m.Room == room {
			users = append(users, m.Username)
		}
	}
	return users
}

// ConnsInRoom returns the connection ids registered in room, in join
// order. Used by the hub to compute fan-out recipient sets.
func (r *Registry) ConnsInRoom(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if r.members[id].Room == room {
			conns = append(conns, id)
		}
	}
	return conns
}

func (r *Registry) removeLocked(connID string) {
	delete(r.members, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}
