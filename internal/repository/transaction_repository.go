package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/ticket-resale-market/internal/model"
)

// ErrTransactionNotFound is returned when no transaction exists for the
// given payment intent.
var ErrTransactionNotFound = errors.New("transaction not found")

// mysqlDupEntry is the server error number for a unique key violation.
const mysqlDupEntry = 1062

// TransactionRepo provides access to in-flight payment transactions.
// A transaction row exists exactly while a payment intent is pending;
// the unique key on (event_id, ticket_id) is the guard that keeps a
// ticket unsellable while a payment referencing it is in flight.
type TransactionRepo struct {
	db *sql.DB
}

// NewTransactionRepo returns a new TransactionRepo bound to the given database.
func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

// Create inserts a transaction keyed by the processor's intent id.
// ErrTicketInFlight is returned when a live transaction already
// references the same ticket.
func (r *TransactionRepo) Create(ctx context.Context, t *model.Transaction) error {
	const q = `INSERT INTO transactions (payment_intent_id, buyer_id, event_id, ticket_id)
	           VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, t.PaymentIntentID, t.BuyerID, t.EventID, t.TicketID)
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDupEntry {
		return ErrTicketInFlight
	}
	return err
}

// Get returns the transaction for a payment intent, or
// ErrTransactionNotFound.
func (r *TransactionRepo) Get(ctx context.Context, paymentIntentID string) (*model.Transaction, error) {
	const q = `SELECT payment_intent_id, buyer_id, event_id, ticket_id, created_at
	           FROM transactions WHERE payment_intent_id = ?`
	var t model.Transaction
	err := r.db.QueryRowContext(ctx, q, paymentIntentID).Scan(
		&t.PaymentIntentID, &t.BuyerID, &t.EventID, &t.TicketID, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Claim atomically removes the transaction for a payment intent and
// returns it.  The single-statement delete is the idempotency guard for
// webhook re-delivery: only the delivery that deletes the row proceeds
// with settlement side effects, every other delivery sees
// ErrTransactionNotFound and stops.
func (r *TransactionRepo) Claim(ctx context.Context, paymentIntentID string) (*model.Transaction, error) {
	t, err := r.Get(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}
	const q = `DELETE FROM transactions WHERE payment_intent_id = ?`
	res, err := r.db.ExecContext(ctx, q, paymentIntentID)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Another delivery claimed it between the read and the delete.
		return nil, ErrTransactionNotFound
	}
	return t, nil
}

// ArchiveFailed removes the transaction and records it in
// failed_transactions within one database transaction.  The archived
// row is audit-only.  ErrTransactionNotFound is returned when the
// transaction has already been settled or archived.
func (r *TransactionRepo) ArchiveFailed(ctx context.Context, paymentIntentID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const ins = `INSERT INTO failed_transactions (payment_intent_id, buyer_id, event_id, ticket_id)
	             SELECT payment_intent_id, buyer_id, event_id, ticket_id
	             FROM transactions WHERE payment_intent_id = ?`
	res, err := tx.ExecContext(ctx, ins, paymentIntentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTransactionNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE payment_intent_id = ?`, paymentIntentID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
