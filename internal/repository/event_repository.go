package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/ticket-resale-market/internal/model"
)

// ErrEventNotFound is returned when the requested event does not exist.
var ErrEventNotFound = errors.New("event not found")

// EventRepo provides access to events and their derived market price.
// The price window is persisted as a JSON array in the price_window
// column and decoded at this boundary; a row whose window fails to
// decode is reported as an error rather than treated as empty.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning multiple repository calls.
func (r *EventRepo) DB() *sql.DB { return r.db }

// GetByID returns a single event.  ErrEventNotFound is returned when no
// row exists.
func (r *EventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	const q = `SELECT id, name, average_price, previous_average, price_window
	           FROM events WHERE id = ?`
	return scanEvent(r.db.QueryRowContext(ctx, q, id))
}

// GetForUpdateTx loads an event inside tx with a row lock, serialising
// concurrent read-modify-write cycles on the price window.
func (r *EventRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*model.Event, error) {
	const q = `SELECT id, name, average_price, previous_average, price_window
	           FROM events WHERE id = ? FOR UPDATE`
	return scanEvent(tx.QueryRowContext(ctx, q, id))
}

// MergeAveragesTx writes back the window, average and previous average
// for an event within tx.  Other event columns are untouched.
func (r *EventRepo) MergeAveragesTx(ctx context.Context, tx *sql.Tx, id string, window []float64, avg, prev float64) error {
	raw, err := json.Marshal(window)
	if err != nil {
		return fmt.Errorf("encode price window: %w", err)
	}
	const q = `UPDATE events SET price_window = ?, average_price = ?, previous_average = ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, string(raw), avg, prev, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// The row was locked moments ago, so this only happens when the
		// update is a no-op; treat it as success.
		return nil
	}
	return nil
}

// Exists reports whether an event row exists without loading it.
func (r *EventRepo) Exists(ctx context.Context, id string) (bool, error) {
	const q = `SELECT 1 FROM events WHERE id = ?`
	var one int
	err := r.db.QueryRowContext(ctx, q, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var ev model.Event
	var rawWindow string
	err := row.Scan(&ev.ID, &ev.Name, &ev.AveragePrice, &ev.PreviousAverage, &rawWindow)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	if rawWindow == "" {
		rawWindow = "[]"
	}
	if err := json.Unmarshal([]byte(rawWindow), &ev.PriceWindow); err != nil {
		return nil, fmt.Errorf("decode price window for event %s: %w", ev.ID, err)
	}
	return &ev, nil
}
