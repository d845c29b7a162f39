// Package queue defines message payloads exchanged over the message
// broker and the consumers that subscribe to them.  Each named event
// has one typed payload; handlers are independent and designed so a
// re-delivered message never corrupts state they guard.
package queue

// Queue names.  One durable queue per event type.
const (
	ListingUploadedQueue = "listing.uploaded"
	TicketPricedQueue    = "ticket.priced"
	TicketSoldQueue      = "ticket.sold"
)

// ListingUploadedEvent is the object storage service's upload-completion
// notification.  Metadata carries the artifact tags the seller's client
// set at upload time; the ingestor decides whether they describe a
// marketplace listing.
type ListingUploadedEvent struct {
	ObjectKey string            `json:"object_key"`
	Metadata  map[string]string `json:"metadata"`
}

// TicketPricedEvent is published on every ticket price write and drives
// the rolling-average update for the ticket's event.  Price is a
// pointer so a write that carried no price can be represented; the
// aggregator treats it as a no-op.
type TicketPricedEvent struct {
	EventID  string   `json:"event_id"`
	TicketID string   `json:"ticket_id"`
	Price    *float64 `json:"price"`
}

// TicketSoldEvent is published when settlement completes.  It carries
// enough for downstream consumers to log or trigger analytics without
// querying the primary database.
type TicketSoldEvent struct {
	PaymentIntentID string  `json:"payment_intent_id"`
	TicketID        string  `json:"ticket_id"`
	EventID         string  `json:"event_id"`
	EventName       string  `json:"event_name"`
	BuyerID         string  `json:"buyer_id"`
	SellerID        string  `json:"seller_id"`
	Price           float64 `json:"price"`
	SoldAt          string  `json:"sold_at"`
}
