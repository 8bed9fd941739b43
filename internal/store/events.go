package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Event is one action the dispatcher attempted.
type Event struct {
	ID        string    `json:"id"`
	Gesture   string    `json:"gesture"`
	Role      string    `json:"role"`
	Action    string    `json:"action"`
	Succeeded bool      `json:"succeeded"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventRepository provides access to the dispatch log.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts e, assigning an ID when it has none.
func (r *EventRepository) Create(e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO dispatch_events (id, gesture, role, action, succeeded, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Gesture, e.Role, e.Action, e.Succeeded, e.Error, e.CreatedAt.UTC(),
	)
	return err
}

// List returns up to limit events, newest first. A non-positive limit
// returns every event.
func (r *EventRepository) List(limit int) ([]*Event, error) {
	query := `SELECT id, gesture, role, action, succeeded, error, created_at
		 FROM dispatch_events ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var succeeded int
		if err := rows.Scan(&e.ID, &e.Gesture, &e.Role, &e.Action, &succeeded, &e.Error, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Succeeded = succeeded != 0
		events = append(events, e)
	}

	return events, rows.Err()
}

// Count returns the number of logged events.
func (r *EventRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM dispatch_events`).Scan(&n)
	return n, err
}

// Prune deletes events older than before and reports how many were removed.
func (r *EventRepository) Prune(before time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM dispatch_events WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
