package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/ticket-resale-market/internal/model"
)

// ErrAccountNotFound is returned when no seller account exists for the
// given key (uid or processor account id).
var ErrAccountNotFound = errors.New("seller account not found")

// SellerAccountRepo provides access to connected payout accounts.  The
// unique processor_account_id column doubles as the side index used to
// resolve account webhooks, which arrive keyed by processor account
// rather than by uid.
type SellerAccountRepo struct {
	db *sql.DB
}

// NewSellerAccountRepo returns a new SellerAccountRepo bound to the given database.
func NewSellerAccountRepo(db *sql.DB) *SellerAccountRepo { return &SellerAccountRepo{db: db} }

// Create records a freshly onboarded connected account.  Transfers are
// inactive until the first account-status webhook says otherwise.
func (r *SellerAccountRepo) Create(ctx context.Context, a *model.SellerAccount) error {
	const q = `INSERT INTO seller_accounts (user_id, processor_account_id, transfers_active)
	           VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, a.UserID, a.ProcessorAccountID, a.TransfersActive)
	return err
}

// GetByUserID returns the seller account for a uid, or ErrAccountNotFound.
func (r *SellerAccountRepo) GetByUserID(ctx context.Context, userID string) (*model.SellerAccount, error) {
	const q = `SELECT user_id, processor_account_id, transfers_active
	           FROM seller_accounts WHERE user_id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, userID))
}

// GetByProcessorAccountID resolves a processor account id to the seller
// it belongs to, or ErrAccountNotFound.
func (r *SellerAccountRepo) GetByProcessorAccountID(ctx context.Context, accountID string) (*model.SellerAccount, error) {
	const q = `SELECT user_id, processor_account_id, transfers_active
	           FROM seller_accounts WHERE processor_account_id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, accountID))
}

// SetTransfersActive merges the transfer capability derived from the
// most recent account-status event.  ErrAccountNotFound is returned
// when the processor account id resolves to no seller.
func (r *SellerAccountRepo) SetTransfersActive(ctx context.Context, accountID string, active bool) error {
	const q = `UPDATE seller_accounts SET transfers_active = ? WHERE processor_account_id = ?`
	res, err := r.db.ExecContext(ctx, q, active, accountID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Zero rows can also mean the flag already held this value;
		// only report not-found when the row is truly absent.
		if _, err := r.GetByProcessorAccountID(ctx, accountID); err != nil {
			return err
		}
	}
	return nil
}

func (r *SellerAccountRepo) scanOne(row *sql.Row) (*model.SellerAccount, error) {
	var a model.SellerAccount
	err := row.Scan(&a.UserID, &a.ProcessorAccountID, &a.TransfersActive)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
