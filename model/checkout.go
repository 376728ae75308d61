package model

type CartItem struct {
	Season   string `json:"season" validate:"required,oneof=winter summer"`
	Quantity int    `json:"quantity" validate:"required,min=1,max=20"`
	IsGift   bool   `json:"isGift"`
}

type CheckoutInput struct {
	Items  []CartItem `json:"items" validate:"required,min=1,dive"`
	Email  string     `json:"email" validate:"omitempty,email"`
	Locale string     `json:"locale" validate:"omitempty,oneof=fr en"`
}

// CheckoutLine is a priced cart line sent to the payment provider.
type CheckoutLine struct {
	Season    string  `json:"season"`
	Label     string  `json:"label"`
	UnitPrice float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	IsGift    bool    `json:"isGift"`
}

type CheckoutResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// PaymentSession is the provider-neutral view of a checkout session.
type PaymentSession struct {
	ID            string
	Paid          bool
	CustomerEmail string
	CustomerName  string
	Lines         []CheckoutLine
	Metadata      map[string]string
}

func (s *PaymentSession) Quantity() int {
	total := 0
	for _, line := range s.Lines {
		total += line.Quantity
	}
	return total
}

type WebhookEvent struct {
	ID        string
	Type      string
	SessionID string
}

type ContactInput struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,max=30"`
	Subject string `json:"subject" validate:"omitempty,max=150"`
	Message string `json:"message" validate:"required,min=5,max=5000"`
}
