package utils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/gosimple/slug"

	"zipline_manager/model"
)

var ErrNoTickets = errors.New("no tickets to render")

type PDFOptions struct {
	SeasonLabels map[string]string
	Location     *time.Location
	SupportPhone string
}

// RenderTicketsPDF writes one A4 page per ticket. Gift tickets get the
// voucher layout.
func RenderTicketsPDF(w io.Writer, tickets []model.Ticket, opts PDFOptions) error {
	if len(tickets) == 0 {
		return ErrNoTickets
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Billets tyrolienne", true)
	pdf.SetCreator("zipline_manager", true)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, ticket := range tickets {
		pdf.AddPage()
		if err := renderTicketPage(pdf, tr, ticket, opts); err != nil {
			return err
		}
	}
	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.Output(w)
}

func renderTicketPage(pdf *fpdf.Fpdf, tr func(string) string, ticket model.Ticket, opts PDFOptions) error {
	title := "BILLET D'ENTRÉE"
	if ticket.IsGift {
		title = "BON CADEAU"
		pdf.SetFillColor(180, 83, 9)
	} else {
		pdf.SetFillColor(22, 101, 52)
	}
	pdf.Rect(0, 0, 210, 42, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetXY(15, 10)
	pdf.CellFormat(180, 12, tr("Tyrolienne"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 14)
	pdf.SetX(15)
	pdf.CellFormat(180, 10, tr(title), "", 1, "L", false, 0, "")

	label := opts.SeasonLabels[ticket.Season]
	if label == "" {
		label = ticket.Season
	}
	rows := [][2]string{
		{"Numéro", ticket.ID},
		{"Saison", label},
		{"Titulaire", ticket.CustomerName},
		{"Prix", fmt.Sprintf("%.2f €", ticket.Price)},
		{"Émis le", ticket.CreatedAt.In(opts.Location).Format("02/01/2006")},
		{"Valable jusqu'au", ticket.ValidUntil.In(opts.Location).Format("02/01/2006")},
	}

	pdf.SetTextColor(30, 30, 30)
	y := 60.0
	for _, row := range rows {
		pdf.SetXY(15, y)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(45, 9, tr(row[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(60, 9, tr(row[1]), "", 0, "L", false, 0, "")
		y += 11
	}

	qr, err := GenerateQRCode(ticket.ID, 512, QRPrint)
	if err != nil {
		return fmt.Errorf("qr for %s: %w", ticket.ID, err)
	}
	imageName := "qr-" + ticket.ID
	options := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(imageName, options, bytes.NewReader(qr))
	pdf.ImageOptions(imageName, 130, 55, 65, 65, false, options, 0, "")

	pdf.SetXY(15, 135)
	pdf.SetFont("Helvetica", "I", 10)
	note := "Présentez ce billet à l'accueil, imprimé ou sur votre téléphone. Valable pour une descente."
	if ticket.IsGift {
		note = "Ce bon cadeau donne droit à une descente en tyrolienne pendant la saison indiquée. " + note
	}
	if opts.SupportPhone != "" {
		note += " Renseignements : " + opts.SupportPhone
	}
	pdf.MultiCell(180, 6, tr(note), "", "L", false)
	return nil
}

// PDFFileName builds a download name such as "billet-zl-3f9a1c07.pdf".
func PDFFileName(parts ...string) string {
	return slug.Make(strings.Join(parts, " ")) + ".pdf"
}
