package model

import "time"

// Ticket is a single resalable artifact tied to one event and one
// seller.  Tickets are created by the listing ingestor with Sold=false;
// the sold flag is flipped to true exactly once, by the settlement
// reconciler on payment success.  Price is immutable after creation.
//
// Fields:
//  ID          – marketplace ticket identifier (UUID).
//  EventID     – identifier of the event this ticket admits to.
//  SellerID    – platform uid of the seller.
//  SellerEmail – seller contact resolved at ingestion time.
//  Price       – listing price in major currency units.
//  Sold        – whether the ticket has been sold.
//  ArtifactRef – object storage key of the uploaded ticket document.
//  CreatedAt   – ingestion timestamp.
type Ticket struct {
	ID          string    // tickets.id
	EventID     string    // tickets.event_id
	SellerID    string    // tickets.seller_id
	SellerEmail string    // tickets.seller_email
	Price       float64   // tickets.price
	Sold        bool      // tickets.sold
	ArtifactRef string    // tickets.artifact_ref
	CreatedAt   time.Time // tickets.created_at
}
