package handler

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"github.com/jinzhu/copier"
	"github.com/sirupsen/logrus"

	"zipline_manager/constants"
	"zipline_manager/helper"
	"zipline_manager/model"
	"zipline_manager/utils"
)

func displayTickets(tickets []model.Ticket) []model.Ticket {
	now := helper.Clock.Now()
	out := make([]model.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		out = append(out, ticket.WithEffectiveStatus(now))
	}
	return out
}

// sessionTickets returns the tickets of a checkout session, issuing the
// missing ones when the payment went through but the webhook has not yet.
func sessionTickets(ctx context.Context, sessionID string) ([]model.Ticket, error) {
	if helper.Fulfiller == nil {
		return helper.Tickets.GetTicketsBySession(ctx, sessionID)
	}

	all, created, err := helper.Fulfiller.EnsureTickets(ctx, sessionID)
	if err != nil {
		existing, lookupErr := helper.Tickets.GetTicketsBySession(ctx, sessionID)
		if lookupErr == nil && len(existing) > 0 {
			logrus.WithError(err).WithField("sessionId", sessionID).Warn("payment lookup failed, serving stored tickets")
			return existing, nil
		}
		return nil, err
	}
	if len(created) > 0 {
		go helper.DeliverTickets(context.Background(), created)
	}
	return all, nil
}

// GetSessionTickets is polled by the post-payment page.
func GetSessionTickets(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	tickets, err := sessionTickets(c.UserContext(), sessionID)
	if errors.Is(err, helper.ErrSessionNotPaid) || (err == nil && len(tickets) == 0) {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"message": constants.TICKETS_NOT_READY,
			"tickets": []model.Ticket{},
		})
	}
	if err != nil {
		return publicError(c, fiber.StatusBadGateway, constants.TICKETS_FAILED, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"sessionId": sessionID,
		"tickets":   displayTickets(tickets),
	})
}

func GetSessionTicketsPDF(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	tickets, err := helper.Tickets.GetTicketsBySession(c.UserContext(), sessionID)
	if err != nil {
		return publicError(c, fiber.StatusBadGateway, constants.TICKETS_FAILED, err)
	}
	if len(tickets) == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.TICKETS_NOT_READY, nil)
	}
	return sendPDF(c, displayTickets(tickets), utils.PDFFileName("billets", sessionID))
}

func sendPDF(c *fiber.Ctx, tickets []model.Ticket, filename string) error {
	pdf, err := helper.RenderTickets(tickets)
	if err != nil {
		return publicError(c, fiber.StatusInternalServerError, constants.TICKETS_FAILED, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}

// GetTicketQR renders the QR code printed on a ticket.
func GetTicketQR(c *fiber.Ctx) error {
	id := c.Locals("ticketId").(string)
	size := c.QueryInt("size", 256)
	if size < 64 || size > 1024 {
		size = 256
	}
	png, err := utils.GenerateQRCode(id, size, utils.QRScreen)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.Send(png)
}

func GetTicket(c *fiber.Ctx) error {
	id := c.Locals("ticketId").(string)

	ticket, err := helper.Tickets.GetTicket(c.UserContext(), id)
	if errors.Is(err, helper.ErrTicketNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.TICKET_NOT_FOUND, err)
	}
	if err != nil {
		return storageError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, ticket.WithEffectiveStatus(helper.Clock.Now()))
}

var validationStatus = map[string]int{
	constants.VALIDATION_VALID:        fiber.StatusOK,
	constants.VALIDATION_NOT_FOUND:    fiber.StatusNotFound,
	constants.VALIDATION_ALREADY_USED: fiber.StatusConflict,
	constants.VALIDATION_EXPIRED:      fiber.StatusGone,
}

// ValidateTicket is called by the gate scanner. Every attempt is broadcast to
// the staff dashboards.
func ValidateTicket(c *fiber.Ctx) error {
	id := c.Locals("ticketId").(string)
	claim, _ := helper.GetInfoAccountFromToken(c)

	result, err := helper.Tickets.ValidateTicket(c.UserContext(), id)
	if err != nil {
		logrus.WithError(err).WithField("ticketId", id).Error("validating ticket")
		return storageError(c, err)
	}

	helper.Scans.Publish(c.UserContext(), model.ScanEvent{
		TicketID: id,
		Code:     result.Code,
		By:       claim.Username,
		At:       helper.Clock.Now(),
	})
	logrus.WithFields(logrus.Fields{"ticketId": id, "code": result.Code, "by": claim.Username}).Info("ticket scanned")

	status, ok := validationStatus[result.Code]
	if !ok {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(result)
}

// GetTickets lists tickets for the admin screen, newest first.
func GetTickets(c *fiber.Ctx) error {
	filter, ok := c.Locals("filterInput").(model.FilterTicketInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("failed to parse filter input"))
	}

	tickets, err := helper.Tickets.GetAllTickets(c.UserContext())
	if err != nil {
		return storageError(c, err)
	}

	rows := filterTickets(displayTickets(tickets), filter)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	return utils.SuccessResponse(c, fiber.StatusOK, model.ResponseCustom{
		Rows:       utils.Paginate(rows, filter.Limit, filter.Page),
		Limit:      filter.Limit,
		Page:       filter.Page,
		TotalCount: int64(len(rows)),
	})
}

func filterTickets(tickets []model.Ticket, filter model.FilterTicketInput) []model.Ticket {
	email := strings.ToLower(strings.TrimSpace(filter.Email))
	rows := make([]model.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		if filter.Status != "" && ticket.Status != filter.Status {
			continue
		}
		if filter.SessionID != "" && ticket.SessionID != filter.SessionID {
			continue
		}
		if email != "" && !strings.Contains(strings.ToLower(ticket.CustomerEmail), email) {
			continue
		}
		rows = append(rows, ticket)
	}
	return rows
}

func GetTicketStats(c *fiber.Ctx) error {
	tickets, err := helper.Tickets.GetAllTickets(c.UserContext())
	if err != nil {
		return storageError(c, err)
	}
	stats := helper.ComputeStats(tickets, helper.Clock.Now(), helper.Schedule.Location())
	return utils.SuccessResponse(c, fiber.StatusOK, stats)
}

func GetTicketPDF(c *fiber.Ctx) error {
	id := c.Locals("ticketId").(string)

	ticket, err := helper.Tickets.GetTicket(c.UserContext(), id)
	if errors.Is(err, helper.ErrTicketNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.TICKET_NOT_FOUND, err)
	}
	if err != nil {
		return storageError(c, err)
	}
	return sendPDF(c, displayTickets([]model.Ticket{*ticket}), utils.PDFFileName("billet", ticket.ID))
}

// CreateGiftTickets issues vouchers sold outside the online shop.
func CreateGiftTickets(c *fiber.Ctx) error {
	input, ok := c.Locals("giftInput").(model.CreateGiftTicketsInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("failed to parse gift input"))
	}
	claim, _ := helper.GetInfoAccountFromToken(c)

	season, ok := helper.Schedule.Season(input.Season)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.UNKNOWN_SEASON, errors.New("unknown season"))
	}

	var draft model.TicketDraft
	if err := copier.Copy(&draft, &input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	draft.IsGift = true
	draft.SessionID = giftSessionID(input.Reference)
	draft.Price = season.Price
	if input.Price != nil {
		draft.Price = *input.Price
	}

	drafts := make([]model.TicketDraft, input.Quantity)
	for i := range drafts {
		drafts[i] = draft
	}

	created, err := helper.Tickets.CreateTicketsBatch(c.UserContext(), drafts)
	if err != nil {
		return storageError(c, err)
	}

	logrus.WithFields(logrus.Fields{
		"by":        claim.Username,
		"sessionId": draft.SessionID,
		"count":     len(created),
	}).Info("gift tickets created")
	go helper.DeliverTickets(context.Background(), created)

	return utils.SuccessResponse(c, fiber.StatusCreated, fiber.Map{
		"message":   constants.GIFT_TICKETS_CREATED,
		"sessionId": draft.SessionID,
		"tickets":   displayTickets(created),
	})
}

func giftSessionID(reference string) string {
	if ref := slug.Make(reference); ref != "" {
		return "gift-" + ref
	}
	return "gift-" + strings.ToLower(strings.TrimPrefix(helper.NewTicketID(), "ZL-"))
}
