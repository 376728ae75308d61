package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"zipline_manager/constants"
	"zipline_manager/helper"
	"zipline_manager/model"
	"zipline_manager/utils"
)

func paidSession(id string, lines ...model.CheckoutLine) *model.PaymentSession {
	return &model.PaymentSession{
		ID:            id,
		Paid:          true,
		CustomerEmail: "lea@example.com",
		CustomerName:  "Léa Martin",
		Lines:         lines,
	}
}

type sessionTickets struct {
	SessionID string         `json:"sessionId"`
	Tickets   []model.Ticket `json:"tickets"`
}

func TestPurchaseToGate(t *testing.T) {
	env := newTestEnv(t)
	env.payments.On("GetSession", mock.Anything, "cs_e2e").Return(paidSession("cs_e2e",
		model.CheckoutLine{Season: constants.SEASON_WINTER, Label: "Tyrolienne - billet hiver", UnitPrice: 39, Quantity: 2},
	), nil)

	resp := env.do(t, http.MethodGet, "/api/v1/tickets/session/cs_e2e", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session envelope[sessionTickets]
	decodeJSON(t, resp, &session)
	require.Len(t, session.Data.Tickets, 2)
	for _, ticket := range session.Data.Tickets {
		assert.Equal(t, "cs_e2e", ticket.SessionID)
		assert.Equal(t, constants.SEASON_WINTER, ticket.Season)
		assert.Equal(t, 39.0, ticket.Price)
		assert.Equal(t, constants.TICKET_ACTIVE, ticket.Status)
		assert.Regexp(t, `^ZL-[0-9A-F]{8}$`, ticket.ID)
	}

	// Polling again does not issue more tickets.
	resp = env.do(t, http.MethodGet, "/api/v1/tickets/session/cs_e2e", nil, "")
	var again envelope[sessionTickets]
	decodeJSON(t, resp, &again)
	assert.Len(t, again.Data.Tickets, 2)

	resp = env.do(t, http.MethodGet, "/api/v1/tickets/session/cs_e2e/pdf", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	pdf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))

	scans, unsubscribe := helper.Scans.Subscribe()
	defer unsubscribe()

	staff := env.token(t, constants.ROLE_STAFF)
	id := session.Data.Tickets[0].ID
	resp = env.do(t, http.MethodPost, "/api/v1/staff/tickets/"+id+"/validate", nil, staff)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var first model.ValidationResult
	decodeJSON(t, resp, &first)
	assert.True(t, first.Valid)
	assert.Equal(t, constants.VALIDATION_VALID, first.Code)
	require.NotNil(t, first.UsedAt)

	select {
	case payload := <-scans:
		var event model.ScanEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		assert.Equal(t, id, event.TicketID)
		assert.Equal(t, constants.VALIDATION_VALID, event.Code)
		assert.Equal(t, "accueil", event.By)
	case <-time.After(time.Second):
		t.Fatal("no scan event broadcast")
	}

	env.clock.Advance(2 * time.Hour)
	resp = env.do(t, http.MethodPost, "/api/v1/staff/tickets/"+id+"/validate", nil, staff)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var second model.ValidationResult
	decodeJSON(t, resp, &second)
	assert.False(t, second.Valid)
	assert.Equal(t, constants.VALIDATION_ALREADY_USED, second.Code)
	assert.Contains(t, second.Message, "déjà utilisé le 10/01/2026 à 10h00")
	require.NotNil(t, second.UsedAt)
	assert.True(t, first.UsedAt.Equal(*second.UsedAt))

	resp = env.do(t, http.MethodGet, "/api/v1/staff/tickets/"+id, nil, staff)
	var stored envelope[model.Ticket]
	decodeJSON(t, resp, &stored)
	assert.Equal(t, constants.TICKET_USED, stored.Data.Status)

	// The other ticket of the session is still good.
	other := session.Data.Tickets[1].ID
	resp = env.do(t, http.MethodPost, "/api/v1/staff/tickets/"+other+"/validate", nil, staff)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestValidateTicket_NotFoundAndExpired(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/staff/tickets/ZL-00000000/validate", nil, env.token(t, constants.ROLE_STAFF))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	var missing model.ValidationResult
	decodeJSON(t, resp, &missing)
	assert.Equal(t, constants.VALIDATION_NOT_FOUND, missing.Code)

	ticket, err := helper.Tickets.CreateTicket(context.Background(), model.TicketDraft{SessionID: "cs_old", Season: constants.SEASON_SUMMER, Price: 35})
	require.NoError(t, err)
	env.clock.Advance(366 * 24 * time.Hour)

	// A lower-case scan is normalized.
	resp = env.do(t, http.MethodPost, "/api/v1/staff/tickets/"+strings.ToLower(ticket.ID)+"/validate", nil, env.token(t, constants.ROLE_ADMIN))
	require.Equal(t, http.StatusGone, resp.StatusCode)
	var expired model.ValidationResult
	decodeJSON(t, resp, &expired)
	assert.False(t, expired.Valid)
	assert.Equal(t, constants.VALIDATION_EXPIRED, expired.Code)
	require.NotNil(t, expired.Ticket)
	assert.Equal(t, constants.TICKET_EXPIRED, expired.Ticket.Status)
}

func TestSessionTickets_NotPaid(t *testing.T) {
	env := newTestEnv(t)
	env.payments.On("GetSession", mock.Anything, "cs_pending").Return(&model.PaymentSession{ID: "cs_pending"}, nil)

	resp := env.do(t, http.MethodGet, "/api/v1/tickets/session/cs_pending", nil, "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	var body struct {
		Message string         `json:"message"`
		Tickets []model.Ticket `json:"tickets"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, constants.TICKETS_NOT_READY, body.Message)
	assert.Empty(t, body.Tickets)
}

func TestSessionTickets_ProviderDown(t *testing.T) {
	env := newTestEnv(t)
	env.payments.On("GetSession", mock.Anything, "cs_down").Return(nil, errors.New("stripe: 503"))

	resp := env.do(t, http.MethodGet, "/api/v1/tickets/session/cs_down", nil, "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var body struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	decodeJSON(t, resp, &body)
	assert.Contains(t, body.Message, supportPhone)
	assert.Nil(t, body.Error)

	// Stored tickets are still served while the provider is down.
	_, err := helper.Tickets.CreateTicket(context.Background(), model.TicketDraft{SessionID: "cs_down", Season: constants.SEASON_WINTER, Price: 39})
	require.NoError(t, err)
	resp = env.do(t, http.MethodGet, "/api/v1/tickets/session/cs_down", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStripeWebhook_IssuesTicketsOnce(t *testing.T) {
	env := newTestEnv(t)
	event := model.WebhookEvent{ID: "evt_1", Type: utils.EventCheckoutCompleted, SessionID: "cs_hook"}
	env.payments.On("ParseWebhook", mock.Anything, "t=1,v1=good").Return(event, nil)
	env.payments.On("GetSession", mock.Anything, "cs_hook").Return(paidSession("cs_hook",
		model.CheckoutLine{Season: constants.SEASON_WINTER, UnitPrice: 39, Quantity: 1},
		model.CheckoutLine{Season: constants.SEASON_SUMMER, UnitPrice: 35, Quantity: 1, IsGift: true},
	), nil)

	var body struct {
		Received bool `json:"received"`
		Created  int  `json:"created"`
	}
	resp := env.do(t, http.MethodPost, "/api/v1/stripe/webhook", []byte(`{}`), "", "Stripe-Signature", "t=1,v1=good")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &body)
	assert.True(t, body.Received)
	assert.Equal(t, 2, body.Created)

	resp = env.do(t, http.MethodPost, "/api/v1/stripe/webhook", []byte(`{}`), "", "Stripe-Signature", "t=1,v1=good")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &body)
	assert.Equal(t, 0, body.Created)

	tickets, err := helper.Tickets.GetTicketsBySession(context.Background(), "cs_hook")
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
}

func TestStripeWebhook_Rejected(t *testing.T) {
	env := newTestEnv(t)
	env.payments.On("ParseWebhook", mock.Anything, "forged").Return(model.WebhookEvent{}, utils.ErrInvalidSignature)

	resp := env.do(t, http.MethodPost, "/api/v1/stripe/webhook", []byte(`{}`), "", "Stripe-Signature", "forged")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStripeWebhook_FailureAsksForRetry(t *testing.T) {
	env := newTestEnv(t)
	event := model.WebhookEvent{ID: "evt_2", Type: utils.EventCheckoutCompleted, SessionID: "cs_err"}
	env.payments.On("ParseWebhook", mock.Anything, "sig").Return(event, nil)
	env.payments.On("GetSession", mock.Anything, "cs_err").Return(nil, errors.New("timeout"))

	resp := env.do(t, http.MethodPost, "/api/v1/stripe/webhook", []byte(`{}`), "", "Stripe-Signature", "sig")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestStripeWebhook_ExpiredIsAcknowledged(t *testing.T) {
	env := newTestEnv(t)
	event := model.WebhookEvent{ID: "evt_3", Type: utils.EventCheckoutExpired, SessionID: "cs_gone"}
	env.payments.On("ParseWebhook", mock.Anything, "sig").Return(event, nil)

	resp := env.do(t, http.MethodPost, "/api/v1/stripe/webhook", []byte(`{}`), "", "Stripe-Signature", "sig")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env.payments.AssertNotCalled(t, "GetSession", mock.Anything, mock.Anything)
}

func TestCheckout_PricesFromSeasonCalendar(t *testing.T) {
	env := newTestEnv(t)
	env.payments.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req utils.CheckoutRequest) bool {
		return len(req.Lines) == 2 &&
			req.Lines[0].Season == constants.SEASON_WINTER && req.Lines[0].UnitPrice == 39 && req.Lines[0].Quantity == 3 &&
			req.Lines[1].Season == constants.SEASON_SUMMER && req.Lines[1].UnitPrice == 35 && req.Lines[1].IsGift &&
			req.Locale == "fr" &&
			req.SuccessURL == "https://zipline.example.com/billets?session_id={CHECKOUT_SESSION_ID}"
	})).Return(&model.CheckoutResult{SessionID: "cs_new", URL: "https://checkout.stripe.com/c/pay/cs_new"}, nil)

	cart := []byte(`{"items":[
		{"season":"winter","quantity":1,"price":1},
		{"season":"winter","quantity":2},
		{"season":"summer","quantity":1,"isGift":true}
	]}`)
	resp := env.do(t, http.MethodPost, "/api/v1/checkout", cart, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body envelope[model.CheckoutResult]
	decodeJSON(t, resp, &body)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_new", body.Data.URL)
}

func TestCheckout_Failures(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/checkout", []byte(`{"items":[]}`), "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var empty struct {
		Message string `json:"message"`
	}
	decodeJSON(t, resp, &empty)
	assert.Equal(t, constants.CART_EMPTY, empty.Message)

	resp = env.do(t, http.MethodPost, "/api/v1/checkout", []byte(`{"items":[{"season":"autumn","quantity":1}]}`), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	env.payments.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, errors.New("card_declined"))
	resp = env.do(t, http.MethodPost, "/api/v1/checkout", []byte(`{"items":[{"season":"winter","quantity":1}]}`), "")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var failed struct {
		Message string `json:"message"`
	}
	decodeJSON(t, resp, &failed)
	assert.Equal(t, fmt.Sprintf(constants.CHECKOUT_FAILED, supportPhone), failed.Message)
}

func TestCheckout_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	helper.Payments = nil

	resp := env.do(t, http.MethodPost, "/api/v1/checkout", []byte(`{"items":[{"season":"winter","quantity":1}]}`), "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestGiftTicketsAndAdminList(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, constants.ROLE_ADMIN)

	gift := model.CreateGiftTicketsInput{
		CustomerName:  "Paul Durand",
		CustomerEmail: "paul@example.com",
		Season:        constants.SEASON_WINTER,
		Quantity:      2,
		Reference:     "Noël 2026",
	}
	resp := env.do(t, http.MethodPost, "/api/v1/admin/tickets/gift", gift, admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created envelope[sessionTickets]
	decodeJSON(t, resp, &created)
	assert.Equal(t, "gift-noel-2026", created.Data.SessionID)
	require.Len(t, created.Data.Tickets, 2)
	for _, ticket := range created.Data.Tickets {
		assert.True(t, ticket.IsGift)
		assert.Equal(t, 39.0, ticket.Price)
		assert.Equal(t, "Paul Durand", ticket.CustomerName)
	}

	price := 20.0
	gift.Quantity, gift.Reference, gift.Price = 1, "", &price
	resp = env.do(t, http.MethodPost, "/api/v1/admin/tickets/gift", gift, admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var discounted envelope[sessionTickets]
	decodeJSON(t, resp, &discounted)
	assert.Equal(t, 20.0, discounted.Data.Tickets[0].Price)
	assert.Regexp(t, `^gift-[0-9a-f]{8}$`, discounted.Data.SessionID)

	resp = env.do(t, http.MethodGet, "/api/v1/admin/tickets?sessionId=gift-noel-2026&limit=1&page=2", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page envelope[struct {
		Rows       []model.Ticket `json:"rows"`
		TotalCount int64          `json:"totalCount"`
	}]
	decodeJSON(t, resp, &page)
	assert.Equal(t, int64(2), page.Data.TotalCount)
	assert.Len(t, page.Data.Rows, 1)

	resp = env.do(t, http.MethodGet, "/api/v1/admin/tickets?email=PAUL@", nil, admin)
	decodeJSON(t, resp, &page)
	assert.Equal(t, int64(3), page.Data.TotalCount)

	resp = env.do(t, http.MethodGet, "/api/v1/admin/tickets?status=used", nil, admin)
	decodeJSON(t, resp, &page)
	assert.Equal(t, int64(0), page.Data.TotalCount)

	resp = env.do(t, http.MethodGet, "/api/v1/admin/tickets?status=lost", nil, admin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/admin/tickets/stats", nil, admin)
	var stats envelope[model.TicketStats]
	decodeJSON(t, resp, &stats)
	assert.Equal(t, 3, stats.Data.Total)
	assert.Equal(t, 3, stats.Data.SoldToday)
	assert.Equal(t, 98.0, stats.Data.Revenue)

	resp = env.do(t, http.MethodGet, "/api/v1/admin/tickets/"+created.Data.Tickets[0].ID+"/pdf", nil, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "billet-zl-")
}

func TestTicketQR(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/tickets/zl-abcdef12/qr", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp = env.do(t, http.MethodGet, "/api/v1/tickets/%3Cscript%3E/qr", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestContact(t *testing.T) {
	env := newTestEnv(t)
	message := model.ContactInput{
		Name:    "Léa Martin",
		Email:   "lea@example.com",
		Message: "Peut-on venir à 12 personnes samedi ?",
	}

	resp := env.do(t, http.MethodPost, "/api/v1/contact", message, "")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var failed struct {
		Message string `json:"message"`
	}
	decodeJSON(t, resp, &failed)
	assert.Contains(t, failed.Message, supportPhone)

	var sent *email.Email
	helper.Contact = utils.NewContactMailerWithSender("site@example.com", "contact@example.com", func(e *email.Email) error {
		sent = e
		return nil
	})
	resp = env.do(t, http.MethodPost, "/api/v1/contact", message, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, sent)
	assert.Equal(t, []string{"contact@example.com"}, sent.To)

	resp = env.do(t, http.MethodPost, "/api/v1/contact", model.ContactInput{Name: "L", Email: "nope"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
