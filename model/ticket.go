package model

import (
	"time"

	"zipline_manager/constants"
)

type Ticket struct {
	ID            string     `json:"id"`
	SessionID     string     `json:"sessionId"`
	Season        string     `json:"season"`
	Price         float64    `json:"price"`
	CustomerEmail string     `json:"customerEmail"`
	CustomerName  string     `json:"customerName"`
	CreatedAt     time.Time  `json:"createdAt"`
	ValidUntil    time.Time  `json:"validUntil"`
	Status        string     `json:"status"`
	UsedAt        *time.Time `json:"usedAt,omitempty"`
	IsGift        bool       `json:"isGift"`
}

// TicketDraft carries the fields fixed by the buyer at creation time.
type TicketDraft struct {
	SessionID     string  `json:"sessionId"`
	Season        string  `json:"season"`
	Price         float64 `json:"price"`
	CustomerEmail string  `json:"customerEmail"`
	CustomerName  string  `json:"customerName"`
	IsGift        bool    `json:"isGift"`
}

// EffectiveStatus derives "expired" from the validity window. Expiry is never
// written back to storage.
func (t Ticket) EffectiveStatus(now time.Time) string {
	if t.Status == constants.TICKET_ACTIVE && now.After(t.ValidUntil) {
		return constants.TICKET_EXPIRED
	}
	return t.Status
}

// WithEffectiveStatus returns a copy suitable for display.
func (t Ticket) WithEffectiveStatus(now time.Time) Ticket {
	t.Status = t.EffectiveStatus(now)
	return t
}

type ValidationResult struct {
	Valid   bool       `json:"valid"`
	Code    string     `json:"code"`
	Message string     `json:"message"`
	Ticket  *Ticket    `json:"ticket,omitempty"`
	UsedAt  *time.Time `json:"usedAt,omitempty"`
}

type TicketStats struct {
	Total     int     `json:"total"`
	Active    int     `json:"active"`
	Used      int     `json:"used"`
	Expired   int     `json:"expired"`
	SoldToday int     `json:"soldToday"`
	Revenue   float64 `json:"revenue"`
}

type FilterTicketInput struct {
	Pagination
	Status    string `query:"status" validate:"omitempty,oneof=active used expired"`
	SessionID string `query:"sessionId"`
	Email     string `query:"email"`
}

type CreateGiftTicketsInput struct {
	CustomerName  string   `json:"customerName" validate:"required,min=2,max=100"`
	CustomerEmail string   `json:"customerEmail" validate:"required,email"`
	Season        string   `json:"season" validate:"required,oneof=winter summer"`
	Quantity      int      `json:"quantity" validate:"required,min=1,max=20"`
	Price         *float64 `json:"price" validate:"omitempty,min=0"`
	Reference     string   `json:"reference" validate:"omitempty,max=100"`
}

// ScanEvent is broadcast to staff dashboards on every validation attempt.
type ScanEvent struct {
	TicketID string    `json:"ticketId"`
	Code     string    `json:"code"`
	By       string    `json:"by"`
	At       time.Time `json:"at"`
}
