package model

type Closure struct {
	Date    string   `json:"date" validate:"required,datetime=2006-01-02"`
	Reasons []string `json:"reasons" validate:"omitempty,dive,oneof=wind rain snow fog other"`
}

type ClosureList struct {
	Closures []Closure `json:"closures"`
	Revision string    `json:"revision"`
}

type ToggleClosureInput struct {
	Date    string   `json:"date" validate:"required,datetime=2006-01-02"`
	Reasons []string `json:"reasons" validate:"omitempty,dive,oneof=wind rain snow fog other"`
}

type PublishClosuresInput struct {
	Closures []Closure `json:"closures" validate:"dive"`
	Revision string    `json:"revision"`
}

type ToggleClosureResult struct {
	Closed   bool      `json:"closed"`
	Closure  *Closure  `json:"closure,omitempty"`
	Closures []Closure `json:"closures"`
	Revision string    `json:"revision"`
}
