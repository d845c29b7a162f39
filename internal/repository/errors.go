// Package repository is the typed adapter over the document store.  Each
// entity gets its own repository with validated scanning at the
// boundary: absent rows surface as sentinel not-found errors and
// malformed stored values surface as decode errors, never as silently
// zero fields.  Sentinel values shared across repositories live here so
// handlers can distinguish failure scenarios with errors.Is.
package repository

import "errors"

// ErrTicketInFlight is returned when a transaction insert collides with
// an existing live transaction for the same ticket.  A ticket is not
// sellable while a payment referencing it is in flight; handlers should
// translate this into an HTTP 409 response.
var ErrTicketInFlight = errors.New("ticket has a payment in flight")
