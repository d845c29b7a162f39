package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/ticket-resale-market/internal/model"
)

// ErrTicketNotFound is returned when the requested ticket does not exist.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketRepo provides access to listed tickets.  Tickets are written
// once by the listing ingestor; the only mutation afterwards is the
// sold flag, which the settlement reconciler flips via MarkSold.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// Create inserts a freshly ingested ticket.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	const q = `INSERT INTO tickets (id, event_id, seller_id, seller_email, price, sold, artifact_ref)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, t.ID, t.EventID, t.SellerID, t.SellerEmail, t.Price, t.Sold, t.ArtifactRef)
	return err
}

// GetByID returns a single ticket.  ErrTicketNotFound is returned when
// no row exists.
func (r *TicketRepo) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	const q = `SELECT id, event_id, seller_id, seller_email, price, sold, artifact_ref, created_at
	           FROM tickets WHERE id = ?`
	var t model.Ticket
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.EventID, &t.SellerID, &t.SellerEmail, &t.Price, &t.Sold, &t.ArtifactRef, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkSold merges sold=true into the ticket.  The write is idempotent:
// marking an already-sold ticket is a no-op, and the sold flag never
// transitions back.  ErrTicketNotFound is returned when the ticket row
// is missing entirely.
func (r *TicketRepo) MarkSold(ctx context.Context, id string) error {
	const q = `UPDATE tickets SET sold = 1 WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the ticket does not exist or it was already sold.
		// Distinguish the two so duplicate deliveries stay silent.
		exists, err := r.exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrTicketNotFound
		}
	}
	return nil
}

func (r *TicketRepo) exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM tickets WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
