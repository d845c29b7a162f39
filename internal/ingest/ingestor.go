// Package ingest turns uploaded ticket artifacts into marketplace
// listings.  The object storage service tags each upload with metadata
// set by the seller's client; an upload whose tags don't describe a
// marketplace listing is silently ignored rather than treated as an
// error, since the bucket also holds unrelated objects.
package ingest

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/google/uuid"

	"github.com/iliyamo/ticket-resale-market/internal/identity"
	"github.com/iliyamo/ticket-resale-market/internal/model"
	"github.com/iliyamo/ticket-resale-market/internal/queue"
)

// Metadata keys the seller's client sets on upload.
const (
	metaEventID  = "event_id"
	metaSellerID = "seller_id"
	metaPrice    = "price"
)

// EventChecker reports whether an event exists.
type EventChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// TicketWriter persists freshly ingested tickets.
type TicketWriter interface {
	Create(ctx context.Context, t *model.Ticket) error
}

// Resolver resolves the seller's uid to their identity.
type Resolver interface {
	Resolve(ctx context.Context, uid string) (*identity.Identity, error)
}

// PricePublisher announces the ticket's price write for the rolling
// average.
type PricePublisher interface {
	PublishTicketPriced(ctx context.Context, ev queue.TicketPricedEvent) error
}

// Ingestor validates upload notifications and creates ticket records.
type Ingestor struct {
	events    EventChecker
	tickets   TicketWriter
	resolver  Resolver
	publisher PricePublisher
}

// NewIngestor constructs an Ingestor.  The publisher may be nil when no
// broker is configured; everything else must be non-nil.
func NewIngestor(events EventChecker, tickets TicketWriter, resolver Resolver, publisher PricePublisher) *Ingestor {
	if events == nil || tickets == nil || resolver == nil {
		panic("nil dependency passed to NewIngestor")
	}
	return &Ingestor{events: events, tickets: tickets, resolver: resolver, publisher: publisher}
}

// Ingest creates a ticket from an upload notification.  It returns
// (nil, nil) for uploads that are not marketplace listings: missing
// event or seller tags, or an event id that resolves to nothing.
// Identity resolution failure is fatal to the ingestion and surfaces as
// an error.  The price tag defaults to 0 when absent or unparseable;
// the listing still goes up and the seller can relist with a price.
func (i *Ingestor) Ingest(ctx context.Context, ev queue.ListingUploadedEvent) (*model.Ticket, error) {
	eventID := ev.Metadata[metaEventID]
	sellerID := ev.Metadata[metaSellerID]
	if eventID == "" || sellerID == "" {
		return nil, nil
	}
	exists, err := i.events.Exists(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("check event %s: %w", eventID, err)
	}
	if !exists {
		return nil, nil
	}

	seller, err := i.resolver.Resolve(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("resolve seller %s: %w", sellerID, err)
	}

	// A missing or unparseable price tag still lists the ticket, at
	// price 0, but must not feed 0 into the event's rolling average.
	var pricedAt *float64
	price := 0.0
	if raw, ok := ev.Metadata[metaPrice]; ok {
		if p, err := strconv.ParseFloat(raw, 64); err == nil {
			price = p
			pricedAt = &p
		} else {
			log.Printf("ingest: unparseable price %q on %s, defaulting to 0", raw, ev.ObjectKey)
		}
	}

	ticket := &model.Ticket{
		ID:          uuid.NewString(),
		EventID:     eventID,
		SellerID:    sellerID,
		SellerEmail: seller.Email,
		Price:       price,
		Sold:        false,
		ArtifactRef: ev.ObjectKey,
	}
	if err := i.tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("create ticket for %s: %w", ev.ObjectKey, err)
	}

	if i.publisher != nil {
		priced := queue.TicketPricedEvent{EventID: eventID, TicketID: ticket.ID, Price: pricedAt}
		if err := i.publisher.PublishTicketPriced(ctx, priced); err != nil {
			log.Printf("ingest: publish ticket.priced for %s: %v", ticket.ID, err)
		}
	}
	return ticket, nil
}
