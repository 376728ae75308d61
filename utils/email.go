package utils

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"gopkg.in/gomail.v2"

	"zipline_manager/config"
	"zipline_manager/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var emailTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type TicketLine struct {
	ID         string
	Season     string
	ValidUntil string
	IsGift     bool
}

type TicketEmailData struct {
	CustomerName string
	Tickets      []TicketLine
	DownloadURL  string
	SupportPhone string
}

type DigestData struct {
	Date     string
	Stats    model.TicketStats
	Tomorrow string
}

// Mailer sends the transactional emails over SMTP.
type Mailer struct {
	from string
	send func(*gomail.Message) error
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return NewMailerWithSender(cfg.From, d.DialAndSend)
}

func NewMailerWithSender(from string, send func(m ...*gomail.Message) error) *Mailer {
	return &Mailer{from: from, send: func(m *gomail.Message) error { return send(m) }}
}

func renderTemplate(name string, data any) (string, error) {
	var body bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return body.String(), nil
}

// SendTickets mails the tickets with the PDF attached.
func (m *Mailer) SendTickets(to string, data TicketEmailData, pdf []byte, filename string) error {
	body, err := renderTemplate("tickets.html", data)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Vos billets pour la tyrolienne")
	msg.SetBody("text/html", body)
	msg.Attach(filename, gomail.Rename(filename), gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(pdf))
		return err
	}))

	if err := m.send(msg); err != nil {
		return fmt.Errorf("sending tickets to %s: %w", to, err)
	}
	return nil
}

func (m *Mailer) SendDigest(to string, data DigestData) error {
	body, err := renderTemplate("digest.html", data)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Bilan billetterie du "+data.Date)
	msg.SetBody("text/html", body)

	if err := m.send(msg); err != nil {
		return fmt.Errorf("sending digest to %s: %w", to, err)
	}
	return nil
}
