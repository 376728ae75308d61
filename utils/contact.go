package utils

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"zipline_manager/config"
	"zipline_manager/model"
)

// ContactMailer forwards the website contact form to the office inbox.
type ContactMailer struct {
	from string
	to   string
	send func(*email.Email) error
}

func NewContactMailer(cfg config.SMTPConfig, to string) *ContactMailer {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	return &ContactMailer{
		from: cfg.From,
		to:   to,
		send: func(e *email.Email) error { return e.Send(addr, auth) },
	}
}

func NewContactMailerWithSender(from, to string, send func(*email.Email) error) *ContactMailer {
	return &ContactMailer{from: from, to: to, send: send}
}

func BuildContactEmail(input model.ContactInput, from, to string) *email.Email {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		subject = "Demande d'information"
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Nom : %s\n", input.Name)
	fmt.Fprintf(&body, "Email : %s\n", input.Email)
	if input.Phone != "" {
		fmt.Fprintf(&body, "Téléphone : %s\n", input.Phone)
	}
	body.WriteString("\n")
	body.WriteString(input.Message)

	e := email.NewEmail()
	e.From = from
	e.To = []string{to}
	e.ReplyTo = []string{input.Email}
	e.Subject = "[Site] " + subject
	e.Text = []byte(body.String())
	return e
}

func (c *ContactMailer) Send(input model.ContactInput) error {
	if err := c.send(BuildContactEmail(input, c.from, c.to)); err != nil {
		return fmt.Errorf("sending contact message: %w", err)
	}
	return nil
}
