package model

// SellerAccount links a marketplace member to their connected payout
// account at the payment processor.  TransfersActive mirrors the
// account's transfer capability and reflects only the most recent
// account-status webhook observed; it is flipped nowhere else.
//
// Fields:
//  UserID             – platform uid of the seller.
//  ProcessorAccountID – connected account id at the processor.  Unique,
//                       and used as the side index when account webhooks
//                       arrive keyed by processor account.
//  TransfersActive    – whether the account may currently receive funds.
type SellerAccount struct {
	UserID             string // seller_accounts.user_id
	ProcessorAccountID string // seller_accounts.processor_account_id
	TransfersActive    bool   // seller_accounts.transfers_active
}
