package products

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default QR placement inside the photo window, as fractions of the
// window's width and height. These match the physical plaque dies.
const (
	DefaultQRWidthFrac = 0.24
	DefaultQRXFrac     = 0.05
	DefaultQRYFrac     = 0.70
)

// Window is the rectangular photo area inside the base template image,
// in base-image pixels
type Window struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// QRPlacement positions the QR code relative to the photo window.
// WidthFrac is the QR edge length as a fraction of the window width;
// XFrac/YFrac are offsets from the window origin as fractions of the
// window's width and height.
type QRPlacement struct {
	WidthFrac float64 `yaml:"width_frac"`
	XFrac     float64 `yaml:"x_frac"`
	YFrac     float64 `yaml:"y_frac"`
}

// ProductTemplate represents the parsed product.yaml manifest file.
// All products must provide name, version, a price and a photo window;
// other fields are optional.
type ProductTemplate struct {
	Name              string      `yaml:"name"`
	DisplayName       string      `yaml:"display_name"`
	Description       string      `yaml:"description"`
	Version           string      `yaml:"version"`
	SchemaVersion     string      `yaml:"schema_version"`
	PriceCents        int64       `yaml:"price_cents"`
	Currency          string      `yaml:"currency"`
	BaseImageURL      string      `yaml:"base_image_url"`
	OverlayImageURL   string      `yaml:"overlay_image_url"`
	Window            Window      `yaml:"window"`
	QR                QRPlacement `yaml:"qr"`
	OptionsSchemaPath string      `yaml:"options_schema_path"`
}

// LoadProductTemplate reads and parses a product.yaml file with strict validation.
// Unknown YAML fields are rejected (via KnownFields), and required fields are validated.
// SchemaVersion defaults to "v1", currency to "usd", and the QR placement
// to the standard plaque geometry when not provided.
func LoadProductTemplate(path string) (*ProductTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read product template: %w", err)
	}

	var tpl ProductTemplate
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown YAML keys to catch typos

	if err := decoder.Decode(&tpl); err != nil {
		return nil, fmt.Errorf("failed to parse product template: %w", err)
	}

	// Apply defaults
	if tpl.SchemaVersion == "" {
		tpl.SchemaVersion = "v1"
	}
	if tpl.Currency == "" {
		tpl.Currency = "usd"
	}
	if tpl.QR.WidthFrac == 0 {
		tpl.QR.WidthFrac = DefaultQRWidthFrac
	}
	if tpl.QR.XFrac == 0 {
		tpl.QR.XFrac = DefaultQRXFrac
	}
	if tpl.QR.YFrac == 0 {
		tpl.QR.YFrac = DefaultQRYFrac
	}
	if tpl.DisplayName == "" {
		tpl.DisplayName = tpl.Name
	}

	// Validate required fields
	if tpl.Name == "" {
		return nil, fmt.Errorf("product template missing required field: name")
	}
	if tpl.Version == "" {
		return nil, fmt.Errorf("product template missing required field: version")
	}
	if tpl.PriceCents <= 0 {
		return nil, fmt.Errorf("product template %s: price_cents must be positive", tpl.Name)
	}
	if tpl.Window.Width <= 0 || tpl.Window.Height <= 0 {
		return nil, fmt.Errorf("product template %s: window width and height must be positive", tpl.Name)
	}

	return &tpl, nil
}
