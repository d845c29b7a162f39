// Package checkout computes the buyer-side charge for a ticket and
// opens the payment intent that funds it.  The buyer pays the listing
// price plus a marketplace markup; the markup is retained as the
// application fee while the remainder routes to the seller's connected
// account.  A transaction row is persisted per intent so settlement can
// later reconcile the asynchronous outcome.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/iliyamo/ticket-resale-market/internal/model"
	"github.com/iliyamo/ticket-resale-market/internal/payment"
	"github.com/iliyamo/ticket-resale-market/internal/repository"
)

// currency is the marketplace's settlement currency.  Listings are
// priced in it and the processor is charged in its minor units.
const currency = "gbp"

// Precondition failures, each distinct so the handler can answer with a
// precise message.  None of them leaves side effects: every check runs
// before the processor call and the transaction write.
var (
	ErrMissingArguments   = errors.New("event id and ticket id are required")
	ErrTicketAlreadySold  = errors.New("ticket is already sold")
	ErrTicketMismatch     = errors.New("ticket does not belong to the event")
	ErrPriceNotSet        = errors.New("ticket has no price")
	ErrSellerNotSet       = errors.New("ticket has no seller")
	ErrSellerNotOnboarded = errors.New("seller has no payment account")
	ErrTransfersInactive  = errors.New("seller account cannot receive transfers")
)

// FeePolicy is the configurable markup formula: a percentage of the
// base charge expressed in basis points, plus a fixed amount in minor
// units.  A flat-fee marketplace sets Bps to zero.
type FeePolicy struct {
	Bps        int
	FixedCents int64
}

// Markup returns the marketplace's cut for a base charge in minor units.
func (p FeePolicy) Markup(baseCents int64) int64 {
	return baseCents*int64(p.Bps)/10000 + p.FixedCents
}

// TicketStore is the slice of the ticket repository the calculator needs.
type TicketStore interface {
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
}

// AccountStore resolves a seller's connected payout account.
type AccountStore interface {
	GetByUserID(ctx context.Context, userID string) (*model.SellerAccount, error)
}

// TransactionStore persists in-flight payment transactions.
type TransactionStore interface {
	Create(ctx context.Context, t *model.Transaction) error
}

// IntentCreator opens payment intents at the processor.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amount int64, currency string, fee int64, destination string) (*payment.Intent, error)
}

// Calculator validates a purchase request, prices it and opens the
// intent.  All collaborators are injected so tests can substitute
// doubles.
type Calculator struct {
	tickets      TicketStore
	accounts     AccountStore
	transactions TransactionStore
	processor    IntentCreator
	policy       FeePolicy
}

// NewCalculator constructs a Calculator.  All dependencies must be non-nil.
func NewCalculator(tickets TicketStore, accounts AccountStore, transactions TransactionStore, processor IntentCreator, policy FeePolicy) *Calculator {
	if tickets == nil || accounts == nil || transactions == nil || processor == nil {
		panic("nil dependency passed to NewCalculator")
	}
	return &Calculator{
		tickets:      tickets,
		accounts:     accounts,
		transactions: transactions,
		processor:    processor,
		policy:       policy,
	}
}

// CreatePurchaseIntent runs the precondition chain, opens a payment
// intent for price plus markup and records the in-flight transaction.
// The returned client secret lets the buyer's client complete the
// charge.  Processor failures propagate without retry; the caller is
// expected to retry the whole operation.
func (c *Calculator) CreatePurchaseIntent(ctx context.Context, buyerID, eventID, ticketID string) (clientSecret string, err error) {
	if eventID == "" || ticketID == "" {
		return "", ErrMissingArguments
	}
	ticket, err := c.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return "", err
	}
	if ticket.EventID != eventID {
		return "", ErrTicketMismatch
	}
	if ticket.Sold {
		return "", ErrTicketAlreadySold
	}
	if ticket.Price <= 0 {
		return "", ErrPriceNotSet
	}
	if ticket.SellerID == "" {
		return "", ErrSellerNotSet
	}
	account, err := c.accounts.GetByUserID(ctx, ticket.SellerID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return "", ErrSellerNotOnboarded
	}
	if err != nil {
		return "", fmt.Errorf("look up seller account for %s: %w", ticket.SellerID, err)
	}
	if !account.TransfersActive {
		return "", ErrTransfersInactive
	}

	base := int64(math.Round(ticket.Price * 100))
	markup := c.policy.Markup(base)
	total := base + markup

	intent, err := c.processor.CreateIntent(ctx, total, currency, markup, account.ProcessorAccountID)
	if err != nil {
		return "", fmt.Errorf("open payment intent for ticket %s: %w", ticketID, err)
	}

	if err := c.transactions.Create(ctx, &model.Transaction{
		PaymentIntentID: intent.ID,
		BuyerID:         buyerID,
		EventID:         eventID,
		TicketID:        ticketID,
	}); err != nil {
		return "", fmt.Errorf("record transaction for intent %s: %w", intent.ID, err)
	}
	return intent.ClientSecret, nil
}
