package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/abbb1399/coding-together-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_guest      BOOLEAN NOT NULL DEFAULT 0,
	session_id    TEXT,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS coaches (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	areas       TEXT NOT NULL DEFAULT '[]',
	description TEXT NOT NULL,
	completed   BOOLEAN NOT NULL DEFAULT 0,
	owner_id    INTEGER NOT NULL,
	avatar_path TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (owner_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_coaches_owner ON coaches(owner_id);
CREATE INDEX IF NOT EXISTS idx_coaches_updated ON coaches(updated_at DESC);
`

// coachPageSize is the fixed page size of the public paginated listing.
const coachPageSize = 2

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply an alternative schema or seed data.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_guest)
		VALUES (?, ?, 0)
	`
	result, err := s.db.ExecContext(ctx, query, username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// CreateGuestUser creates a temporary guest user with session ID.
func (s *SQLiteStore) CreateGuestUser(ctx context.Context, sessionID string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_guest, session_id)
		VALUES (?, '', 1, ?)
	`
	guestUsername := "guest_" + sessionID[:8]

	result, err := s.db.ExecContext(ctx, query, guestUsername, sessionID)
	if err != nil {
		return nil, fmt.Errorf("insert guest user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, is_guest, COALESCE(session_id, ''), created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, is_guest, COALESCE(session_id, ''), created_at
		FROM users
		WHERE username = ? AND is_guest = 0
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

// GetUserBySessionID retrieves a guest user by session ID.
func (s *SQLiteStore) GetUserBySessionID(ctx context.Context, sessionID string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, is_guest, COALESCE(session_id, ''), created_at
		FROM users
		WHERE session_id = ? AND is_guest = 1
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, sessionID))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsGuest,
		&user.SessionID,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// ==== CoachStore implementation ====

const coachColumns = `id, name, areas, description, completed, owner_id, avatar_path, created_at, updated_at`

// CreateCoach inserts a coach and returns it with assigned ID and timestamps.
func (s *SQLiteStore) CreateCoach(ctx context.Context, coach *store.Coach) (*store.Coach, error) {
	areas, err := encodeAreas(coach.Areas)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO coaches (name, areas, description, completed, owner_id)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		coach.Name, areas, coach.Description, coach.Completed, coach.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("insert coach: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetCoach(ctx, id)
}

// GetCoach retrieves a coach by ID regardless of owner.
func (s *SQLiteStore) GetCoach(ctx context.Context, id int64) (*store.Coach, error) {
	query := `SELECT ` + coachColumns + ` FROM coaches WHERE id = ?`
	return scanCoach(s.db.QueryRowContext(ctx, query, id))
}

// GetCoachForOwner retrieves a coach by ID scoped to its owner.
func (s *SQLiteStore) GetCoachForOwner(ctx context.Context, id, ownerID int64) (*store.Coach, error) {
	query := `SELECT ` + coachColumns + ` FROM coaches WHERE id = ? AND owner_id = ?`
	return scanCoach(s.db.QueryRowContext(ctx, query, id, ownerID))
}

// ListCoaches retrieves every coach, oldest first.
func (s *SQLiteStore) ListCoaches(ctx context.Context) ([]*store.Coach, error) {
	query := `SELECT ` + coachColumns + ` FROM coaches ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query coaches: %w", err)
	}
	defer rows.Close()

	return collectCoaches(rows)
}

// ListCoachesPage retrieves one page of coaches ordered by updated_at
// descending, optionally filtered by area.
func (s *SQLiteStore) ListCoachesPage(ctx context.Context, skip int, area string) ([]*store.Coach, error) {
	query := `SELECT ` + coachColumns + ` FROM coaches`
	args := []any{}

	if area != "" && area != "all" {
		// areas is a JSON array; match exact elements, not substrings.
		query += ` WHERE EXISTS (SELECT 1 FROM json_each(coaches.areas) WHERE json_each.value = ?)`
		args = append(args, area)
	}

	query += ` ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, coachPageSize, skip)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query coach page: %w", err)
	}
	defer rows.Close()

	return collectCoaches(rows)
}

// ListCoachesForOwner retrieves an owner's coaches narrowed by filter.
func (s *SQLiteStore) ListCoachesForOwner(ctx context.Context, ownerID int64, filter store.CoachFilter) ([]*store.Coach, error) {
	query := `SELECT ` + coachColumns + ` FROM coaches WHERE owner_id = ?`
	args := []any{ownerID}

	if filter.Completed != nil {
		query += ` AND completed = ?`
		args = append(args, *filter.Completed)
	}

	query += ` ORDER BY ` + sortColumn(filter.SortBy)
	if filter.SortDesc {
		query += ` DESC`
	}

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Skip > 0 {
		// OFFSET requires a LIMIT clause in SQLite.
		query += ` LIMIT -1`
	}
	if filter.Skip > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Skip)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query owner coaches: %w", err)
	}
	defer rows.Close()

	return collectCoaches(rows)
}

// UpdateCoach writes back mutable fields and bumps updated_at.
func (s *SQLiteStore) UpdateCoach(ctx context.Context, coach *store.Coach) (*store.Coach, error) {
	areas, err := encodeAreas(coach.Areas)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE coaches
		SET name = ?, areas = ?, description = ?, completed = ?, avatar_path = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND owner_id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		coach.Name, areas, coach.Description, coach.Completed, coach.AvatarPath,
		coach.ID, coach.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("update coach: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetCoach(ctx, coach.ID)
}

// DeleteCoach removes a coach scoped to its owner and returns it.
func (s *SQLiteStore) DeleteCoach(ctx context.Context, id, ownerID int64) (*store.Coach, error) {
	coach, err := s.GetCoachForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM coaches WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return nil, fmt.Errorf("delete coach: %w", err)
	}

	return coach, nil
}

func scanCoach(row *sql.Row) (*store.Coach, error) {
	var (
		coach store.Coach
		areas string
	)
	err := row.Scan(
		&coach.ID,
		&coach.Name,
		&areas,
		&coach.Description,
		&coach.Completed,
		&coach.OwnerID,
		&coach.AvatarPath,
		&coach.CreatedAt,
		&coach.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query coach: %w", err)
	}

	if err := json.Unmarshal([]byte(areas), &coach.Areas); err != nil {
		return nil, fmt.Errorf("decode areas: %w", err)
	}
	return &coach, nil
}

func collectCoaches(rows *sql.Rows) ([]*store.Coach, error) {
	coaches := make([]*store.Coach, 0)
	for rows.Next() {
		var (
			coach store.Coach
			areas string
		)
		err := rows.Scan(
			&coach.ID,
			&coach.Name,
			&areas,
			&coach.Description,
			&coach.Completed,
			&coach.OwnerID,
			&coach.AvatarPath,
			&coach.CreatedAt,
			&coach.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan coach: %w", err)
		}
		if err := json.Unmarshal([]byte(areas), &coach.Areas); err != nil {
			return nil, fmt.Errorf("decode areas: %w", err)
		}
		coaches = append(coaches, &coach)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coaches: %w", err)
	}
	return coaches, nil
}

func encodeAreas(areas []string) (string, error) {
	if areas == nil {
		areas = []string{}
	}
	data, err := json.Marshal(areas)
	if err != nil {
		return "", fmt.Errorf("encode areas: %w", err)
	}
	return string(data), nil
}

// sortColumn whitelists user-supplied sort fields.
func sortColumn(field string) string {
	switch field {
	case "created_at", "createdAt":
		return "created_at"
	case "updated_at", "updatedAt":
		return "updated_at"
	case "name":
		return "name"
	default:
		return "id"
	}
}
