package helper

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"zipline_manager/model"
	"zipline_manager/utils"
)

// TicketPDFOptions builds the PDF settings from the season calendar.
func TicketPDFOptions() utils.PDFOptions {
	opts := utils.PDFOptions{SeasonLabels: map[string]string{}, Location: time.UTC}
	if Schedule != nil {
		opts.Location = Schedule.Location()
		for _, product := range Schedule.Products() {
			opts.SeasonLabels[product.Season] = product.Label
		}
	}
	if Settings != nil {
		opts.SupportPhone = Settings.SupportPhone
	}
	return opts
}

func RenderTickets(tickets []model.Ticket) ([]byte, error) {
	var buf bytes.Buffer
	if err := utils.RenderTicketsPDF(&buf, tickets, TicketPDFOptions()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeliverTickets emails freshly issued tickets to the buyer and archives gift
// vouchers. Failures are logged; the tickets stay downloadable from the site.
func DeliverTickets(ctx context.Context, tickets []model.Ticket) {
	if len(tickets) == 0 || (Mailer == nil && Archive == nil) {
		return
	}
	first := tickets[0]
	log := logrus.WithFields(logrus.Fields{"sessionId": first.SessionID, "count": len(tickets)})

	pdf, err := RenderTickets(tickets)
	if err != nil {
		log.WithError(err).Error("rendering tickets PDF")
		return
	}

	if Mailer != nil && first.CustomerEmail != "" {
		if err := Mailer.SendTickets(first.CustomerEmail, ticketEmailData(tickets), pdf, utils.PDFFileName("billets", first.SessionID)); err != nil {
			log.WithError(err).Error("sending tickets email")
		} else {
			log.WithField("to", first.CustomerEmail).Info("tickets email sent")
		}
	}

	if Archive != nil {
		for _, ticket := range tickets {
			if !ticket.IsGift {
				continue
			}
			voucher, err := RenderTickets([]model.Ticket{ticket})
			if err != nil {
				log.WithError(err).WithField("ticketId", ticket.ID).Error("rendering voucher")
				continue
			}
			url, err := Archive.Upload(ctx, strings.ToLower(ticket.ID), voucher)
			if err != nil {
				log.WithError(err).WithField("ticketId", ticket.ID).Warn("archiving voucher")
				continue
			}
			log.WithFields(logrus.Fields{"ticketId": ticket.ID, "url": url}).Info("voucher archived")
		}
	}
}

func ticketEmailData(tickets []model.Ticket) utils.TicketEmailData {
	opts := TicketPDFOptions()
	data := utils.TicketEmailData{
		CustomerName: tickets[0].CustomerName,
		SupportPhone: opts.SupportPhone,
	}
	if Settings != nil && tickets[0].SessionID != "" {
		data.DownloadURL = fmt.Sprintf("%s/billets?session_id=%s", Settings.AppURL, tickets[0].SessionID)
	}
	for _, ticket := range tickets {
		label := opts.SeasonLabels[ticket.Season]
		if label == "" {
			label = ticket.Season
		}
		data.Tickets = append(data.Tickets, utils.TicketLine{
			ID:         ticket.ID,
			Season:     label,
			ValidUntil: ticket.ValidUntil.In(opts.Location).Format("02/01/2006"),
			IsGift:     ticket.IsGift,
		})
	}
	return data
}
