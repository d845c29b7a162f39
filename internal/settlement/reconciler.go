// Package settlement drives the terminal half of the transaction
// lifecycle.  Payment outcomes arrive asynchronously as processor
// webhook events; the reconciler turns each into state transitions on
// tickets, transactions and seller accounts.
//
// The state machine per payment intent is small: a transaction row
// means "pending"; a succeeded event settles the sale (row deleted,
// ticket sold, buyer and seller notified); a failed event archives the
// row.  Claiming the transaction, a single-statement delete, is the
// first act of settlement, so a webhook delivered twice finds nothing
// to claim the second time and produces no duplicate emails or
// mutations.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"time"

	"github.com/iliyamo/ticket-resale-market/internal/identity"
	"github.com/iliyamo/ticket-resale-market/internal/model"
	"github.com/iliyamo/ticket-resale-market/internal/notify"
	"github.com/iliyamo/ticket-resale-market/internal/queue"
)

// ErrBuyerNotFound is returned when the buyer behind a claimed
// transaction cannot be resolved at the identity provider.
var ErrBuyerNotFound = errors.New("buyer identity not found")

// TransactionStore claims and archives in-flight transactions.
type TransactionStore interface {
	Claim(ctx context.Context, paymentIntentID string) (*model.Transaction, error)
	ArchiveFailed(ctx context.Context, paymentIntentID string) error
}

// TicketStore reads tickets and flips their sold flag.
type TicketStore interface {
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
	MarkSold(ctx context.Context, id string) error
}

// EventStore reads events.
type EventStore interface {
	GetByID(ctx context.Context, id string) (*model.Event, error)
}

// AccountStore reads seller accounts and merges transfer capability.
type AccountStore interface {
	GetByUserID(ctx context.Context, userID string) (*model.SellerAccount, error)
	SetTransfersActive(ctx context.Context, accountID string, active bool) error
}

// Resolver resolves platform uids to identities.
type Resolver interface {
	Resolve(ctx context.Context, uid string) (*identity.Identity, error)
}

// ArtifactFetcher downloads ticket documents from object storage.
type ArtifactFetcher interface {
	Download(ctx context.Context, key string) (content []byte, mimeType string, err error)
}

// Notifier sends the fulfillment messages.
type Notifier interface {
	NotifyBuyer(ctx context.Context, to, eventName string, artifact notify.Artifact) error
	NotifySeller(ctx context.Context, to, eventName string, price float64) error
}

// SalePublisher emits the ticket.sold broker event consumed by the
// settlement log.
type SalePublisher interface {
	PublishTicketSold(ctx context.Context, ev queue.TicketSoldEvent) error
}

// Reconciler applies webhook outcomes to marketplace state.  All
// collaborators are injected so tests can substitute doubles.
type Reconciler struct {
	transactions TransactionStore
	tickets      TicketStore
	events       EventStore
	accounts     AccountStore
	resolver     Resolver
	artifacts    ArtifactFetcher
	notifier     Notifier
	publisher    SalePublisher
}

// NewReconciler constructs a Reconciler.  The publisher may be nil when
// no broker is configured; everything else must be non-nil.
func NewReconciler(
	transactions TransactionStore,
	tickets TicketStore,
	events EventStore,
	accounts AccountStore,
	resolver Resolver,
	artifacts ArtifactFetcher,
	notifier Notifier,
	publisher SalePublisher,
) *Reconciler {
	if transactions == nil || tickets == nil || events == nil || accounts == nil ||
		resolver == nil || artifacts == nil || notifier == nil {
		panic("nil dependency passed to NewReconciler")
	}
	return &Reconciler{
		transactions: transactions,
		tickets:      tickets,
		events:       events,
		accounts:     accounts,
		resolver:     resolver,
		artifacts:    artifacts,
		notifier:     notifier,
		publisher:    publisher,
	}
}

// HandleIntentSucceeded settles a successful payment.  Not-found errors
// (transaction already claimed, or a referenced resource gone) surface
// to the handler unchanged; everything after the ticket is marked sold
// is best effort and only logged, since the sale itself has happened.
func (r *Reconciler) HandleIntentSucceeded(ctx context.Context, paymentIntentID string) error {
	txn, err := r.transactions.Claim(ctx, paymentIntentID)
	if err != nil {
		return err
	}

	buyer, err := r.resolver.Resolve(ctx, txn.BuyerID)
	if err != nil {
		return fmt.Errorf("%w: uid %s", ErrBuyerNotFound, txn.BuyerID)
	}
	event, err := r.events.GetByID(ctx, txn.EventID)
	if err != nil {
		return err
	}
	ticket, err := r.tickets.GetByID(ctx, txn.TicketID)
	if err != nil {
		return err
	}

	if err := r.tickets.MarkSold(ctx, ticket.ID); err != nil {
		return fmt.Errorf("mark ticket %s sold: %w", ticket.ID, err)
	}

	// The sale is settled from here on.  Fulfillment failures leave the
	// buyer without an email but never unwind the sold transition.
	content, mimeType, err := r.artifacts.Download(ctx, ticket.ArtifactRef)
	if err != nil {
		log.Printf("settlement: fetch artifact for ticket %s: %v", ticket.ID, err)
	} else {
		artifact := notify.Artifact{
			Filename: path.Base(ticket.ArtifactRef),
			MIMEType: mimeType,
			Content:  content,
		}
		if err := r.notifier.NotifyBuyer(ctx, buyer.Email, event.Name, artifact); err != nil {
			log.Printf("settlement: notify buyer %s: %v", buyer.UID, err)
		}
	}

	if _, err := r.accounts.GetByUserID(ctx, ticket.SellerID); err == nil {
		if err := r.notifier.NotifySeller(ctx, ticket.SellerEmail, event.Name, ticket.Price); err != nil {
			log.Printf("settlement: notify seller %s: %v", ticket.SellerID, err)
		}
	}

	if r.publisher != nil {
		ev := queue.TicketSoldEvent{
			PaymentIntentID: paymentIntentID,
			TicketID:        ticket.ID,
			EventID:         event.ID,
			EventName:       event.Name,
			BuyerID:         txn.BuyerID,
			SellerID:        ticket.SellerID,
			Price:           ticket.Price,
			SoldAt:          time.Now().UTC().Format(time.RFC3339),
		}
		if err := r.publisher.PublishTicketSold(ctx, ev); err != nil {
			log.Printf("settlement: publish ticket.sold for %s: %v", ticket.ID, err)
		}
	}
	return nil
}

// HandleIntentFailed archives the transaction for a terminally failed
// payment.  No notifications are sent.
func (r *Reconciler) HandleIntentFailed(ctx context.Context, paymentIntentID string) error {
	return r.transactions.ArchiveFailed(ctx, paymentIntentID)
}

// HandleAccountUpdated merges the transfer capability from an
// account-status event into the seller account it resolves to.  This is
// the only path that flips payout eligibility.
func (r *Reconciler) HandleAccountUpdated(ctx context.Context, accountID string, transfersActive bool) error {
	return r.accounts.SetTransfersActive(ctx, accountID, transfersActive)
}
