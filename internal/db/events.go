package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrEventNotFound is returned when an event is not found.
var ErrEventNotFound = errors.New("event not found")

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Event is one recorded hook decision.
type Event struct {
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	EventType  string    `json:"event_type"`
	Command    string    `json:"command"`
	Action     string    `json:"action,omitempty"`
}

// ListOptions filters ListEvents.
type ListOptions struct {
	// EventType restricts results to one event type when non-empty.
	EventType string
	// Since restricts results to events at or after this time when non-zero.
	Since time.Time
	// Limit caps the number of results; <= 0 means no limit.
	Limit int
}

// InsertEvent records e. ID and OccurredAt are filled in when empty.
func (db *DB) InsertEvent(e *Event) error {
	if e.EventType == "" {
		return fmt.Errorf("event_type is required")
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	e.OccurredAt = e.OccurredAt.UTC()

	_, err := db.Exec(`
		INSERT INTO events (id, occurred_at, event_type, command, action)
		VALUES (?, ?, ?, ?, ?)
	`, e.ID, e.OccurredAt.Format(timeLayout), e.EventType, e.Command, e.Action)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// GetEvent retrieves an event by ID.
func (db *DB) GetEvent(id string) (*Event, error) {
	row := db.QueryRow(`
		SELECT id, occurred_at, event_type, command, action
		FROM events WHERE id = ?
	`, id)

	e := &Event{}
	var occurredAt string
	if err := row.Scan(&e.ID, &occurredAt, &e.EventType, &e.Command, &e.Action); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("scanning event: %w", err)
	}
	t, err := time.Parse(timeLayout, occurredAt)
	if err != nil {
		return nil, fmt.Errorf("parsing occurred_at: %w", err)
	}
	e.OccurredAt = t
	return e, nil
}

// ListEvents returns events newest first.
func (db *DB) ListEvents(opts ListOptions) ([]*Event, error) {
	query := `SELECT id, occurred_at, event_type, command, action FROM events WHERE 1=1`
	var args []any
	if opts.EventType != "" {
		query += ` AND event_type = ?`
		args = append(args, opts.EventType)
	}
	if !opts.Since.IsZero() {
		query += ` AND occurred_at >= ?`
		args = append(args, opts.Since.UTC().Format(timeLayout))
	}
	query += ` ORDER BY occurred_at DESC, rowid DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// CountEvents returns the number of events of eventType, or of all events
// when eventType is empty.
func (db *DB) CountEvents(eventType string) (int, error) {
	var n int
	var err error
	if eventType == "" {
		err = db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n)
	} else {
		err = db.QueryRow(`SELECT COUNT(*) FROM events WHERE event_type = ?`, eventType).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}

func scanEvents(rows *sql.Rows) ([]*Event, error) {
	events := []*Event{}
	for rows.Next() {
		e := &Event{}
		var occurredAt string
		if err := rows.Scan(&e.ID, &occurredAt, &e.EventType, &e.Command, &e.Action); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		t, err := time.Parse(timeLayout, occurredAt)
		if err != nil {
			return nil, fmt.Errorf("parsing occurred_at: %w", err)
		}
		e.OccurredAt = t
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}
