package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist or is
// not visible to the caller.
var ErrNotFound = errors.New("record not found")

// User represents a user in the system.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsGuest      bool
	SessionID    string // For guest user session tracking
	CreatedAt    time.Time
}

// Coach represents a coach profile in the directory.
type Coach struct {
	ID          int64
	Name        string
	Areas       []string // subject areas the coach covers
	Description string
	Completed   bool
	OwnerID     int64
	AvatarPath  string // empty when no avatar has been uploaded
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CoachFilter narrows and orders owner-scoped coach listings.
type CoachFilter struct {
	Completed *bool
	SortBy    string // created_at, updated_at or name; empty = id
	SortDesc  bool
	Limit     int // 0 = no limit
	Skip      int
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// CreateGuestUser creates a temporary guest user with session ID.
	CreateGuestUser(ctx context.Context, sessionID string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetUserBySessionID retrieves a guest user by session ID.
	GetUserBySessionID(ctx context.Context, sessionID string) (*User, error)
}

// CoachStore handles coach persistence.
type CoachStore interface {
	// CreateCoach inserts a coach and returns it with assigned ID and
	// timestamps.
	CreateCoach(ctx context.Context, coach *Coach) (*Coach, error)

	// GetCoach retrieves a coach by ID regardless of owner.
	GetCoach(ctx context.Context, id int64) (*Coach, error)

	// GetCoachForOwner retrieves a coach by ID scoped to its owner.
	GetCoachForOwner(ctx context.Context, id, ownerID int64) (*Coach, error)

	// ListCoaches retrieves every coach, oldest first.
	ListCoaches(ctx context.Context) ([]*Coach, error)

	// ListCoachesPage retrieves one page of coaches ordered by
	// updated_at descending, optionally filtered by area. Page size is
	// fixed; skip is the number of records to pass over.
	ListCoachesPage(ctx context.Context, skip int, area string) ([]*Coach, error)

	// ListCoachesForOwner retrieves an owner's coaches narrowed by
	// filter.
	ListCoachesForOwner(ctx context.Context, ownerID int64, filter CoachFilter) ([]*Coach, error)

	// UpdateCoach writes back mutable fields (name, areas, description,
	// completed, avatar_path) and bumps updated_at. Scoped to owner.
	UpdateCoach(ctx context.Context, coach *Coach) (*Coach, error)

	// DeleteCoach removes a coach scoped to its owner and returns the
	// deleted record.
	DeleteCoach(ctx context.Context, id, ownerID int64) (*Coach, error)
}

// Store is the full persistence interface the application wires.
type Store interface {
	UserStore
	CoachStore

	// Close releases the underlying database resources.
	Close() error
}
