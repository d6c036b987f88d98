// Package qr renders access-code text as a shareable QR image. The QR payload
// is just the code text; scanning and typing converge on the same
// verification endpoint.
package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const defaultSize = 256

// DataURL encodes text as a PNG QR code and returns it as a data URL ready
// for an <img> src attribute.
func DataURL(text string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("cannot encode empty text as QR code")
	}
	png, err := qrcode.Encode(text, qrcode.Medium, defaultSize)
	if err != nil {
		return "", fmt.Errorf("failed to render QR code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
