package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"zipline_manager/constants"
	"zipline_manager/model"
)

const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventCheckoutExpired       = "checkout.session.expired"

	cartMetadataKey = "cart"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

type CheckoutRequest struct {
	Lines         []model.CheckoutLine
	CustomerEmail string
	Locale        string
	SuccessURL    string
	CancelURL     string
}

// PaymentProvider is the slice of the payment API the shop relies on.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*model.CheckoutResult, error)
	GetSession(ctx context.Context, sessionID string) (*model.PaymentSession, error)
	ListPaidSessions(ctx context.Context, since time.Time) ([]string, error)
	ParseWebhook(payload []byte, signature string) (model.WebhookEvent, error)
}

type StripeProvider struct {
	api           *client.API
	webhookSecret string
	currency      string
}

func NewStripeProvider(secretKey, webhookSecret, currency string) *StripeProvider {
	return &StripeProvider{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
		currency:      currency,
	}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*model.CheckoutResult, error) {
	cart, err := json.Marshal(req.Lines)
	if err != nil {
		return nil, fmt.Errorf("encoding cart: %w", err)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if req.Locale != "" {
		params.Locale = stripe.String(req.Locale)
	}
	for _, line := range req.Lines {
		name := line.Label
		if line.IsGift {
			name += " (bon cadeau)"
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(p.currency),
				UnitAmount: stripe.Int64(ToCents(line.UnitPrice)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:     stripe.String(name),
					Metadata: map[string]string{"season": line.Season},
				},
			},
			Quantity: stripe.Int64(int64(line.Quantity)),
		})
	}
	params.AddMetadata(cartMetadataKey, string(cart))

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("creating checkout session: %w", err)
	}
	return &model.CheckoutResult{SessionID: session.ID, URL: session.URL}, nil
}

func (p *StripeProvider) GetSession(ctx context.Context, sessionID string) (*model.PaymentSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")

	session, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieving checkout session %s: %w", sessionID, err)
	}
	return toPaymentSession(session), nil
}

func (p *StripeProvider) ListPaidSessions(ctx context.Context, since time.Time) ([]string, error) {
	params := &stripe.CheckoutSessionListParams{
		Status: stripe.String(string(stripe.CheckoutSessionStatusComplete)),
	}
	params.Context = ctx
	params.Filters.AddFilter("created", "gte", strconv.FormatInt(since.Unix(), 10))

	ids := []string{}
	iter := p.api.CheckoutSessions.List(params)
	for iter.Next() {
		session := iter.CheckoutSession()
		if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
			ids = append(ids, session.ID)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("listing checkout sessions: %w", err)
	}
	return ids, nil
}

func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (model.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return model.WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	parsed := model.WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(parsed.Type, "checkout.session.") && event.Data != nil {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return model.WebhookEvent{}, fmt.Errorf("decoding checkout session: %w", err)
		}
		parsed.SessionID = session.ID
	}
	return parsed, nil
}

func toPaymentSession(session *stripe.CheckoutSession) *model.PaymentSession {
	result := &model.PaymentSession{
		ID:            session.ID,
		Paid:          session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		CustomerEmail: session.CustomerEmail,
		Metadata:      session.Metadata,
	}
	if session.CustomerDetails != nil {
		if session.CustomerDetails.Email != "" {
			result.CustomerEmail = session.CustomerDetails.Email
		}
		result.CustomerName = session.CustomerDetails.Name
	}

	if lines, ok := DecodeCart(session.Metadata[cartMetadataKey]); ok {
		result.Lines = lines
		return result
	}
	if session.LineItems != nil {
		for _, item := range session.LineItems.Data {
			line := model.CheckoutLine{
				Season:   constants.SEASON_UNKNOWN,
				Label:    item.Description,
				Quantity: int(item.Quantity),
			}
			if item.Price != nil {
				line.UnitPrice = FromCents(item.Price.UnitAmount)
			} else if item.Quantity > 0 {
				line.UnitPrice = FromCents(item.AmountTotal / item.Quantity)
			}
			result.Lines = append(result.Lines, line)
		}
	}
	return result
}

// DecodeCart reads the cart stored in session metadata at checkout time.
func DecodeCart(raw string) ([]model.CheckoutLine, bool) {
	if raw == "" {
		return nil, false
	}
	var lines []model.CheckoutLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil || len(lines) == 0 {
		return nil, false
	}
	for i := range lines {
		if lines[i].Season == "" {
			lines[i].Season = constants.SEASON_UNKNOWN
		}
	}
	return lines, true
}

func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FromCents(cents int64) float64 {
	return float64(cents) / 100
}
