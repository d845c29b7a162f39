// Package notify composes the buyer and seller messages sent when a
// sale settles.  The buyer receives the ticket document itself; the
// seller receives a confirmation that their payout is on the way.
package notify

import (
	"context"
	"fmt"

	"github.com/iliyamo/ticket-resale-market/internal/mailer"
)

// Sender is the slice of the mail client the notifier needs.
type Sender interface {
	Send(ctx context.Context, m mailer.Message) error
}

// Artifact is a fetched ticket document ready for attachment.
type Artifact struct {
	Filename string
	MIMEType string
	Content  []byte
}

// Notifier sends fulfillment messages through the configured sender.
type Notifier struct {
	sender Sender
	from   string
}

// NewNotifier constructs a Notifier.  The sender must be non-nil.
func NewNotifier(sender Sender, from string) *Notifier {
	if sender == nil {
		panic("nil sender passed to NewNotifier")
	}
	return &Notifier{sender: sender, from: from}
}

// NotifyBuyer emails the purchased ticket to the buyer.
func (n *Notifier) NotifyBuyer(ctx context.Context, to, eventName string, artifact Artifact) error {
	msg := mailer.Message{
		To:      to,
		From:    n.from,
		Subject: fmt.Sprintf("Your ticket for %s", eventName),
		Body: fmt.Sprintf(
			"Thanks for your purchase! Your ticket for %s is attached.\n\n"+
				"Bring it with you on the day; the barcode is all you need at the door.\n",
			eventName),
		Attachment: &mailer.Attachment{
			Filename: artifact.Filename,
			MIMEType: artifact.MIMEType,
			Content:  artifact.Content,
		},
	}
	return n.sender.Send(ctx, msg)
}

// NotifySeller emails a sale confirmation to the seller.  No attachment:
// the ticket now belongs to the buyer.
func (n *Notifier) NotifySeller(ctx context.Context, to, eventName string, price float64) error {
	msg := mailer.Message{
		To:      to,
		From:    n.from,
		Subject: fmt.Sprintf("Your ticket for %s has sold", eventName),
		Body: fmt.Sprintf(
			"Good news: your ticket for %s sold for £%.2f.\n\n"+
				"The payout will arrive in your connected account shortly.\n",
			eventName, price),
	}
	return n.sender.Send(ctx, msg)
}
