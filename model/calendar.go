package model

type DayInfo struct {
	Date         string   `json:"date"`
	Season       string   `json:"season"`
	Status       string   `json:"status"`
	IsToday      bool     `json:"isToday"`
	OpeningHours *string  `json:"openingHours"`
	Reasons      []string `json:"reasons,omitempty"`
}

type Product struct {
	Season string  `json:"season"`
	Label  string  `json:"label"`
	Price  float64 `json:"price"`
	Hours  string  `json:"hours"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
}
