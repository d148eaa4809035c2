package mockup

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dashqrcodes/dash-memories/internal/products"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// solidPNG encodes a uniformly colored image of the given size
func solidPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// imageServer serves fixed PNG bodies by path
func imageServer(images map[string][]byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := images[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
}

func TestCompose(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	green := color.RGBA{G: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}

	// Fully transparent overlay so the layers beneath stay visible
	transparent := image.NewRGBA(image.Rect(0, 0, 200, 100))
	var overlayBuf bytes.Buffer
	require.NoError(t, png.Encode(&overlayBuf, transparent))

	srv := imageServer(map[string][]byte{
		"/base.png":    solidPNG(t, 200, 100, red),
		"/photo.png":   solidPNG(t, 40, 40, green),
		"/overlay.png": overlayBuf.Bytes(),
		"/qr.png":      solidPNG(t, 20, 20, blue),
	})
	defer srv.Close()

	in := Inputs{
		BaseURL:    srv.URL + "/base.png",
		PhotoURL:   srv.URL + "/photo.png",
		OverlayURL: srv.URL + "/overlay.png",
		QRURL:      srv.URL + "/qr.png",
		Window:     products.Window{X: 50, Y: 20, Width: 100, Height: 60},
		QR:         products.QRPlacement{WidthFrac: 0.24, XFrac: 0.05, YFrac: 0.70},
	}

	out, err := NewCompositor().Compose(context.Background(), in)
	require.NoError(t, err)

	// Canvas matches the base template's dimensions
	assert.Equal(t, image.Rect(0, 0, 200, 100), out.Bounds())

	// Outside the window the base shows through
	assertColor(t, out, 10, 10, red)
	assertColor(t, out, 190, 90, red)

	// The photo fills the window edge to edge
	assertColor(t, out, 51, 21, green)
	assertColor(t, out, 148, 78, green)

	// The QR sits at its fractional offset inside the window:
	// x = 50 + 0.05*100 = 55, y = 20 + 0.70*60 = 62, edge = 0.24*100 = 24
	assertColor(t, out, 60, 70, blue)
	// And the photo is still visible just outside the QR rectangle
	assertColor(t, out, 100, 30, green)
}

func assertColor(t *testing.T, img image.Image, x, y int, want color.RGBA) {
	t.Helper()
	got := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	assert.Equalf(t, want, got, "pixel (%d,%d)", x, y)
}

func TestComposeUsesProvidedQRImage(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	green := color.RGBA{G: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}

	transparent := image.NewRGBA(image.Rect(0, 0, 100, 100))
	var overlayBuf bytes.Buffer
	require.NoError(t, png.Encode(&overlayBuf, transparent))

	srv := imageServer(map[string][]byte{
		"/base.png":    solidPNG(t, 100, 100, red),
		"/photo.png":   solidPNG(t, 10, 10, green),
		"/overlay.png": overlayBuf.Bytes(),
	})
	defer srv.Close()

	qrImg := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			qrImg.SetRGBA(x, y, blue)
		}
	}

	in := Inputs{
		BaseURL:    srv.URL + "/base.png",
		PhotoURL:   srv.URL + "/photo.png",
		OverlayURL: srv.URL + "/overlay.png",
		QRImage:    qrImg,
		Window:     products.Window{X: 0, Y: 0, Width: 100, Height: 100},
		QR:         products.QRPlacement{WidthFrac: 0.2, XFrac: 0.1, YFrac: 0.1},
	}

	out, err := NewCompositor().Compose(context.Background(), in)
	require.NoError(t, err)

	// QR rect: x=10, y=10, edge=20
	assertColor(t, out, 15, 15, blue)
	assertColor(t, out, 50, 50, green)
}

func TestComposeFailsWhenAnySourceFails(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}

	srv := imageServer(map[string][]byte{
		"/base.png":  solidPNG(t, 100, 100, red),
		"/photo.png": solidPNG(t, 10, 10, red),
		// overlay.png deliberately absent
		"/qr.png": solidPNG(t, 10, 10, red),
	})
	defer srv.Close()

	in := Inputs{
		BaseURL:    srv.URL + "/base.png",
		PhotoURL:   srv.URL + "/photo.png",
		OverlayURL: srv.URL + "/overlay.png",
		QRURL:      srv.URL + "/qr.png",
		Window:     products.Window{X: 0, Y: 0, Width: 50, Height: 50},
	}

	_, err := NewCompositor().Compose(context.Background(), in)
	assert.Error(t, err)
}

func TestComposeRejectsMissingInputs(t *testing.T) {
	c := NewCompositor()

	_, err := c.Compose(context.Background(), Inputs{PhotoURL: "http://x", OverlayURL: "http://y", QRURL: "http://z"})
	assert.Error(t, err)

	_, err = c.Compose(context.Background(), Inputs{BaseURL: "http://w", PhotoURL: "http://x", OverlayURL: "http://y"})
	assert.Error(t, err)
}
