package helper

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"zipline_manager/model"
	"zipline_manager/utils"
)

var ErrSessionNotPaid = errors.New("payment session is not paid")

// Fulfillment turns a paid checkout session into tickets. It is safe to call
// from the webhook, the post-payment page and the reconcile job for the same
// session.
type Fulfillment struct {
	payments utils.PaymentProvider
	tickets  *TicketStore
}

func NewFulfillment(payments utils.PaymentProvider, tickets *TicketStore) *Fulfillment {
	return &Fulfillment{payments: payments, tickets: tickets}
}

// EnsureTickets returns every ticket of the session, creating the missing
// ones. created holds only the tickets made by this call.
func (f *Fulfillment) EnsureTickets(ctx context.Context, sessionID string) (all []model.Ticket, created []model.Ticket, err error) {
	session, err := f.payments.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if !session.Paid {
		return nil, nil, fmt.Errorf("%w: %s", ErrSessionNotPaid, sessionID)
	}

	all, created, err = f.tickets.FillSession(ctx, session.ID, DraftsForSession(session))
	if err != nil {
		return nil, nil, err
	}
	if len(created) > 0 {
		logrus.WithFields(logrus.Fields{
			"sessionId": session.ID,
			"created":   len(created),
			"total":     len(all),
		}).Info("tickets issued for session")
	}
	return all, created, nil
}

// DraftsForSession expands the session lines into one draft per admission.
func DraftsForSession(session *model.PaymentSession) []model.TicketDraft {
	drafts := make([]model.TicketDraft, 0, session.Quantity())
	for _, line := range session.Lines {
		for i := 0; i < line.Quantity; i++ {
			drafts = append(drafts, model.TicketDraft{
				SessionID:     session.ID,
				Season:        line.Season,
				Price:         line.UnitPrice,
				CustomerEmail: session.CustomerEmail,
				CustomerName:  session.CustomerName,
				IsGift:        line.IsGift,
			})
		}
	}
	return drafts
}
