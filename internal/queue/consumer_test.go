package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/iliyamo/ticket-resale-market/internal/model"
	"github.com/iliyamo/ticket-resale-market/internal/repository"
)

type fakeIngestor struct {
	ticket *model.Ticket
	err    error
	calls  int
}

func (f *fakeIngestor) Ingest(_ context.Context, _ ListingUploadedEvent) (*model.Ticket, error) {
	f.calls++
	return f.ticket, f.err
}

type fakeUpdater struct {
	err   error
	calls int
}

func (f *fakeUpdater) UpdateAverage(_ context.Context, _ string, _ *float64) (float64, float64, error) {
	f.calls++
	return 0, 0, f.err
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestListingHandlerDiscardsMalformedPayload(t *testing.T) {
	ing := &fakeIngestor{}
	err := listingHandler(ing)(context.Background(), []byte("{not json"))
	if !errors.Is(err, errDiscard) {
		t.Fatalf("err = %v, want discard", err)
	}
	if ing.calls != 0 {
		t.Errorf("ingestor called for malformed payload")
	}
}

func TestListingHandlerRequeuesTransientFailure(t *testing.T) {
	// A resolver or store blip must not drop the upload notification:
	// the error surfaces without the discard marker so the delivery
	// goes back on the queue.
	ing := &fakeIngestor{err: errors.New("identity provider unavailable")}
	body := mustJSON(t, ListingUploadedEvent{
		ObjectKey: "uploads/t.pdf",
		Metadata:  map[string]string{"event_id": "ev1", "seller_id": "s1"},
	})
	err := listingHandler(ing)(context.Background(), body)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, errDiscard) {
		t.Fatalf("transient failure marked discard: %v", err)
	}
}

func TestListingHandlerAcksSuccess(t *testing.T) {
	ing := &fakeIngestor{ticket: &model.Ticket{ID: "t1", EventID: "ev1"}}
	body := mustJSON(t, ListingUploadedEvent{ObjectKey: "uploads/t.pdf"})
	if err := listingHandler(ing)(context.Background(), body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPricingHandlerDispositions(t *testing.T) {
	price := 12.0
	body := mustJSON(t, TicketPricedEvent{EventID: "ev1", TicketID: "t1", Price: &price})

	cases := []struct {
		name        string
		updateErr   error
		wantErr     bool
		wantDiscard bool
	}{
		{name: "success", updateErr: nil},
		{name: "missing event dropped", updateErr: repository.ErrEventNotFound, wantErr: true, wantDiscard: true},
		{name: "store blip requeued", updateErr: errors.New("driver: bad connection"), wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			agg := &fakeUpdater{err: tc.updateErr}
			err := pricingHandler(agg)(context.Background(), body)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if errors.Is(err, errDiscard) != tc.wantDiscard {
				t.Errorf("discard = %v, want %v (err %v)", errors.Is(err, errDiscard), tc.wantDiscard, err)
			}
		})
	}
}

func TestPricingHandlerDiscardsMalformedPayload(t *testing.T) {
	agg := &fakeUpdater{}
	err := pricingHandler(agg)(context.Background(), []byte("not json"))
	if !errors.Is(err, errDiscard) {
		t.Fatalf("err = %v, want discard", err)
	}
	if agg.calls != 0 {
		t.Errorf("aggregator called for malformed payload")
	}
}
