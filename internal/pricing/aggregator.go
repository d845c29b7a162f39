// Package pricing maintains the rolling market price displayed for each
// event.  Every ticket price write feeds one price into a bounded
// window on the event; the displayed figure is the arithmetic mean of
// that window, with the pre-update mean kept alongside so clients can
// show the direction of movement.
package pricing

import (
	"context"
	"fmt"

	"github.com/iliyamo/ticket-resale-market/internal/repository"
)

// windowSize bounds the number of recent prices an event retains.
const windowSize = 5

// Aggregator applies price writes to an event's rolling window.  The
// read-modify-write runs inside a database transaction with the event
// row locked, so concurrent writes to the same event serialise instead
// of losing entries.
type Aggregator struct {
	events *repository.EventRepo
}

// NewAggregator returns an Aggregator bound to the given event repository.
func NewAggregator(events *repository.EventRepo) *Aggregator {
	if events == nil {
		panic("nil event repository passed to NewAggregator")
	}
	return &Aggregator{events: events}
}

// UpdateAverage folds newPrice into the event's window and returns the
// resulting average and previous average.  A nil price is a no-op: the
// triggering write carried no price and nothing is read or written.
// The window keeps at most five entries, evicting the oldest first.
func (a *Aggregator) UpdateAverage(ctx context.Context, eventID string, newPrice *float64) (avg, prev float64, err error) {
	if newPrice == nil {
		return 0, 0, nil
	}
	tx, err := a.events.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin price update: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	ev, err := a.events.GetForUpdateTx(ctx, tx, eventID)
	if err != nil {
		return 0, 0, err
	}

	window, avg, prev := advance(ev.PriceWindow, ev.AveragePrice, *newPrice)

	if err := a.events.MergeAveragesTx(ctx, tx, eventID, window, avg, prev); err != nil {
		return 0, 0, fmt.Errorf("merge averages for event %s: %w", eventID, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit price update: %w", err)
	}
	committed = true
	return avg, prev, nil
}

// advance is the pure window step: FIFO-append price into window
// (evicting the oldest entry once the window is full), recompute the
// mean, and carry the pre-update average out as prev.
func advance(window []float64, currentAvg, price float64) (next []float64, avg, prev float64) {
	next = append([]float64(nil), window...)
	if len(next) >= windowSize {
		next = next[1:]
	}
	next = append(next, price)

	var total float64
	for _, p := range next {
		total += p
	}
	return next, total / float64(len(next)), currentAvg
}
