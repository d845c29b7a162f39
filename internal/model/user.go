package model

import "github.com/iliyamo/ticket-resale-market/internal/securefield"

// User is the payable profile of a marketplace member as stored in the
// `users` table.  The two banking fields are stored encrypted at rest
// and only ever pass through the secure field codec; the repository
// layer never sees plaintext.  Payable becomes true once a profile
// carrying banking details has been written at signup.
//
// Fields:
//  ID            – platform uid (opaque, issued upstream).
//  Email         – contact address resolved from the identity provider.
//  SortCode      – encrypted bank sort code.
//  AccountNumber – encrypted bank account number.
//  Payable       – whether a payout destination has been captured.
type User struct {
	ID            string            // users.id
	Email         string            // users.email
	SortCode      securefield.Field // users.sort_code_iv / users.sort_code_ct
	AccountNumber securefield.Field // users.account_number_iv / users.account_number_ct
	Payable       bool              // users.payable
}
