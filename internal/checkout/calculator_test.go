package checkout_test

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/ticket-resale-market/internal/checkout"
	"github.com/iliyamo/ticket-resale-market/internal/model"
	"github.com/iliyamo/ticket-resale-market/internal/payment"
	"github.com/iliyamo/ticket-resale-market/internal/repository"
)

type fakeTickets struct {
	tickets map[string]*model.Ticket
}

func (f *fakeTickets) GetByID(_ context.Context, id string) (*model.Ticket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	return t, nil
}

type fakeAccounts struct {
	accounts map[string]*model.SellerAccount
	err      error
}

func (f *fakeAccounts) GetByUserID(_ context.Context, userID string) (*model.SellerAccount, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.accounts[userID]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return a, nil
}

type fakeTransactions struct {
	created []*model.Transaction
	err     error
}

func (f *fakeTransactions) Create(_ context.Context, t *model.Transaction) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, t)
	return nil
}

type fakeProcessor struct {
	calls  int
	amount int64
	fee    int64
	dest   string
	err    error
}

func (f *fakeProcessor) CreateIntent(_ context.Context, amount int64, _ string, fee int64, destination string) (*payment.Intent, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.amount = amount
	f.fee = fee
	f.dest = destination
	return &payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil
}

func newFixture() (*fakeTickets, *fakeAccounts, *fakeTransactions, *fakeProcessor) {
	tickets := &fakeTickets{tickets: map[string]*model.Ticket{
		"t1": {ID: "t1", EventID: "ev1", SellerID: "seller1", SellerEmail: "s@example.com", Price: 25.00},
	}}
	accounts := &fakeAccounts{accounts: map[string]*model.SellerAccount{
		"seller1": {UserID: "seller1", ProcessorAccountID: "acct_1", TransfersActive: true},
	}}
	return tickets, accounts, &fakeTransactions{}, &fakeProcessor{}
}

func TestCreatePurchaseIntentHappyPath(t *testing.T) {
	tickets, accounts, txns, proc := newFixture()
	calc := checkout.NewCalculator(tickets, accounts, txns, proc, checkout.FeePolicy{Bps: 140, FixedCents: 20})

	secret, err := calc.CreatePurchaseIntent(context.Background(), "buyer1", "ev1", "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "pi_1_secret" {
		t.Errorf("client secret = %q", secret)
	}
	// base 2500, markup 2500*140/10000 + 20 = 35 + 20 = 55, total 2555
	if proc.amount != 2555 || proc.fee != 55 {
		t.Errorf("amount=%d fee=%d, want 2555/55", proc.amount, proc.fee)
	}
	if proc.dest != "acct_1" {
		t.Errorf("destination = %q, want acct_1", proc.dest)
	}
	if len(txns.created) != 1 {
		t.Fatalf("expected one transaction, got %d", len(txns.created))
	}
	tr := txns.created[0]
	if tr.PaymentIntentID != "pi_1" || tr.BuyerID != "buyer1" || tr.EventID != "ev1" || tr.TicketID != "t1" {
		t.Errorf("unexpected transaction: %+v", tr)
	}
}

func TestCreatePurchaseIntentFlatFeePolicy(t *testing.T) {
	tickets, accounts, txns, proc := newFixture()
	calc := checkout.NewCalculator(tickets, accounts, txns, proc, checkout.FeePolicy{Bps: 0, FixedCents: 100})

	if _, err := calc.CreatePurchaseIntent(context.Background(), "buyer1", "ev1", "t1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proc.amount != 2600 || proc.fee != 100 {
		t.Errorf("amount=%d fee=%d, want 2600/100", proc.amount, proc.fee)
	}
}

func TestCreatePurchaseIntentPreconditions(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*fakeTickets, *fakeAccounts)
		eventID string
		ticket  string
		wantErr error
	}{
		{name: "missing args", eventID: "", ticket: "", wantErr: checkout.ErrMissingArguments},
		{name: "unknown ticket", eventID: "ev1", ticket: "nope", wantErr: repository.ErrTicketNotFound},
		{name: "wrong event", eventID: "ev2", ticket: "t1", wantErr: checkout.ErrTicketMismatch},
		{
			name:    "already sold",
			mutate:  func(ft *fakeTickets, _ *fakeAccounts) { ft.tickets["t1"].Sold = true },
			eventID: "ev1", ticket: "t1", wantErr: checkout.ErrTicketAlreadySold,
		},
		{
			name:    "no price",
			mutate:  func(ft *fakeTickets, _ *fakeAccounts) { ft.tickets["t1"].Price = 0 },
			eventID: "ev1", ticket: "t1", wantErr: checkout.ErrPriceNotSet,
		},
		{
			name:    "no seller",
			mutate:  func(ft *fakeTickets, _ *fakeAccounts) { ft.tickets["t1"].SellerID = "" },
			eventID: "ev1", ticket: "t1", wantErr: checkout.ErrSellerNotSet,
		},
		{
			name:    "seller not onboarded",
			mutate:  func(_ *fakeTickets, fa *fakeAccounts) { delete(fa.accounts, "seller1") },
			eventID: "ev1", ticket: "t1", wantErr: checkout.ErrSellerNotOnboarded,
		},
		{
			name:    "transfers inactive",
			mutate:  func(_ *fakeTickets, fa *fakeAccounts) { fa.accounts["seller1"].TransfersActive = false },
			eventID: "ev1", ticket: "t1", wantErr: checkout.ErrTransfersInactive,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tickets, accounts, txns, proc := newFixture()
			if tc.mutate != nil {
				tc.mutate(tickets, accounts)
			}
			calc := checkout.NewCalculator(tickets, accounts, txns, proc, checkout.FeePolicy{Bps: 140, FixedCents: 20})

			_, err := calc.CreatePurchaseIntent(context.Background(), "buyer1", tc.eventID, tc.ticket)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			// Precondition failures must leave no side effects.
			if proc.calls != 0 {
				t.Errorf("processor called %d times on precondition failure", proc.calls)
			}
			if len(txns.created) != 0 {
				t.Errorf("transaction written on precondition failure")
			}
		})
	}
}

func TestCreatePurchaseIntentAccountStoreFailurePropagates(t *testing.T) {
	tickets, accounts, txns, proc := newFixture()
	storeErr := errors.New("driver: bad connection")
	accounts.err = storeErr
	calc := checkout.NewCalculator(tickets, accounts, txns, proc, checkout.FeePolicy{Bps: 140, FixedCents: 20})

	_, err := calc.CreatePurchaseIntent(context.Background(), "buyer1", "ev1", "t1")
	// A store outage is not a missing account; it must surface as the
	// underlying error, not as an onboarding precondition.
	if errors.Is(err, checkout.ErrSellerNotOnboarded) {
		t.Fatalf("store outage reported as precondition error: %v", err)
	}
	if !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want wrapped %v", err, storeErr)
	}
	if proc.calls != 0 {
		t.Errorf("processor called despite store failure")
	}
	if len(txns.created) != 0 {
		t.Errorf("transaction written despite store failure")
	}
}

func TestCreatePurchaseIntentProcessorFailurePropagates(t *testing.T) {
	tickets, accounts, txns, proc := newFixture()
	proc.err = errors.New("processor unavailable")
	calc := checkout.NewCalculator(tickets, accounts, txns, proc, checkout.FeePolicy{Bps: 140, FixedCents: 20})

	_, err := calc.CreatePurchaseIntent(context.Background(), "buyer1", "ev1", "t1")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(txns.created) != 0 {
		t.Errorf("transaction written despite processor failure")
	}
}

func TestCreatePurchaseIntentInFlightGuard(t *testing.T) {
	tickets, accounts, txns, proc := newFixture()
	txns.err = repository.ErrTicketInFlight
	calc := checkout.NewCalculator(tickets, accounts, txns, proc, checkout.FeePolicy{Bps: 140, FixedCents: 20})

	_, err := calc.CreatePurchaseIntent(context.Background(), "buyer1", "ev1", "t1")
	if !errors.Is(err, repository.ErrTicketInFlight) {
		t.Fatalf("err = %v, want ErrTicketInFlight", err)
	}
}
