package utils

import (
	"bytes"
	"errors"
	"image/png"

	"github.com/skip2/go-qrcode"
)

// Printed tickets get folded and scratched, so they carry more redundancy
// than the code shown on a phone screen.
const (
	QRScreen = qrcode.Medium
	QRPrint  = qrcode.High
)

var ErrEmptyQRContent = errors.New("qr content is empty")

// GenerateQRCode returns a size x size PNG encoding content at the given
// recovery level.
func GenerateQRCode(content string, size int, level qrcode.RecoveryLevel) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyQRContent
	}
	qr, err := qrcode.New(content, level)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, qr.Image(size)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
