// Package qr renders the QR code that links a physical product back to
// its memorial page.
package qr

import (
	"fmt"
	"image"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered QR edge length in pixels. The compositor
// rescales to the product window, so this only needs enough resolution
// for print.
const DefaultSize = 512

// RenderPNG renders a QR code for the given URL as PNG bytes
func RenderPNG(url string, size int) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}
	if size <= 0 {
		size = DefaultSize
	}

	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}

	return png, nil
}

// RenderImage renders a QR code for the given URL as an in-memory image,
// for callers that composite it directly without a storage round-trip
func RenderImage(url string, size int) (image.Image, error) {
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}
	if size <= 0 {
		size = DefaultSize
	}

	code, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to build QR code: %w", err)
	}

	return code.Image(size), nil
}
