package utils

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zipline_manager/model"
)

func sampleTicket(id string, gift bool) model.Ticket {
	created := time.Date(2026, 12, 20, 9, 0, 0, 0, time.UTC)
	return model.Ticket{
		ID:           id,
		SessionID:    "cs_test_1",
		Season:       "winter",
		Price:        39,
		CustomerName: "Léa Martin",
		CreatedAt:    created,
		ValidUntil:   created.AddDate(1, 0, 0),
		Status:       "active",
		IsGift:       gift,
	}
}

func TestRenderTicketsPDF(t *testing.T) {
	var out bytes.Buffer
	err := RenderTicketsPDF(&out, []model.Ticket{sampleTicket("ZL-ABCDEF12", false), sampleTicket("ZL-12345678", true)}, PDFOptions{
		SeasonLabels: map[string]string{"winter": "Tyrolienne - billet hiver"},
		SupportPhone: "04 79 00 00 00",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("%PDF")))
	assert.Greater(t, out.Len(), 1000)
}

func TestRenderTicketsPDF_NoTickets(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorIs(t, RenderTicketsPDF(&out, nil, PDFOptions{}), ErrNoTickets)
	assert.Zero(t, out.Len())
}

func TestPDFFileName(t *testing.T) {
	assert.Equal(t, "billet-zl-abcdef12.pdf", PDFFileName("billet", "ZL-ABCDEF12"))
	assert.Equal(t, "bon-cadeau-lea-martin.pdf", PDFFileName("bon cadeau", "Léa Martin"))
}

func TestGenerateQRCode(t *testing.T) {
	screen, err := GenerateQRCode("ZL-ABCDEF12", 256, QRScreen)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(screen, []byte("\x89PNG")))

	img, err := png.Decode(bytes.NewReader(screen))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())

	printed, err := GenerateQRCode("ZL-ABCDEF12", 256, QRPrint)
	require.NoError(t, err)
	assert.NotEqual(t, screen, printed)

	_, err = GenerateQRCode("", 256, QRScreen)
	assert.ErrorIs(t, err, ErrEmptyQRContent)
}
