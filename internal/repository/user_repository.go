package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/ticket-resale-market/internal/model"
)

// ErrUserNotFound is returned when no payable profile exists for a uid.
var ErrUserNotFound = errors.New("user not found")

// UserRepo provides access to payable user profiles.  The banking
// columns hold codec output (hex iv and ciphertext); plaintext never
// reaches this layer.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Upsert creates or overwrites the payable profile for a uid.  Signup
// re-submissions replace the stored banking fields wholesale.
func (r *UserRepo) Upsert(ctx context.Context, u *model.User) error {
	const q = `INSERT INTO users (id, email, sort_code_iv, sort_code_ct, account_number_iv, account_number_ct, payable)
	           VALUES (?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	             email = VALUES(email),
	             sort_code_iv = VALUES(sort_code_iv),
	             sort_code_ct = VALUES(sort_code_ct),
	             account_number_iv = VALUES(account_number_iv),
	             account_number_ct = VALUES(account_number_ct),
	             payable = VALUES(payable)`
	_, err := r.db.ExecContext(ctx, q,
		u.ID, u.Email,
		u.SortCode.IV, u.SortCode.Ciphertext,
		u.AccountNumber.IV, u.AccountNumber.Ciphertext,
		u.Payable,
	)
	return err
}

// GetByID returns the payable profile for a uid, or ErrUserNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT id, email, sort_code_iv, sort_code_ct, account_number_iv, account_number_ct, payable
	           FROM users WHERE id = ?`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&u.ID, &u.Email,
		&u.SortCode.IV, &u.SortCode.Ciphertext,
		&u.AccountNumber.IV, &u.AccountNumber.Ciphertext,
		&u.Payable,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
