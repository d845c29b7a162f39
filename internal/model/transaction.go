package model

import "time"

// Transaction is an in-flight payment record linking a buyer to a
// ticket purchase.  Its existence denotes "payment in flight": it is
// created when a payment intent is requested and deleted by the
// settlement reconciler once the intent reaches a terminal state.
// A unique key on (event_id, ticket_id) guarantees at most one live
// transaction per ticket.
type Transaction struct {
	PaymentIntentID string    // transactions.payment_intent_id (primary key)
	BuyerID         string    // transactions.buyer_id
	EventID         string    // transactions.event_id
	TicketID        string    // transactions.ticket_id
	CreatedAt       time.Time // transactions.created_at
}

// FailedTransaction archives a transaction whose payment intent
// terminally failed.  Kept purely for audit; nothing in the pipeline
// reads it back.
type FailedTransaction struct {
	PaymentIntentID string    // failed_transactions.payment_intent_id
	BuyerID         string    // failed_transactions.buyer_id
	EventID         string    // failed_transactions.event_id
	TicketID        string    // failed_transactions.ticket_id
	FailedAt        time.Time // failed_transactions.failed_at
}
