// Package mockup composites a visitor photo and QR code into a product
// template image for checkout preview and print fulfillment.
package mockup

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	_ "image/jpeg" // register decoders for fetched images
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/dashqrcodes/dash-memories/internal/products"
)

// Inputs describes one compositing pass. QRImage, when set, is used
// directly instead of fetching QRURL: the handler renders QR codes
// in-process and skips the storage round-trip.
type Inputs struct {
	BaseURL    string
	PhotoURL   string
	OverlayURL string
	QRURL      string
	QRImage    image.Image
	Window     products.Window
	QR         products.QRPlacement
}

// Compositor fetches source images over HTTP and flattens them into a
// single raster. One compositing pass is a short-lived, independent task:
// the four source loads run concurrently, and any failure fails the whole
// pass rather than producing a partially composited image.
type Compositor struct {
	httpClient *http.Client
}

// NewCompositor creates a compositor with a bounded fetch timeout
func NewCompositor() *Compositor {
	return &Compositor{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Compose produces the flattened mockup. Draw order: base template at
// full canvas, photo stretched to exactly fill the window, QR code at its
// fractional placement inside the window, overlay at full canvas.
func (c *Compositor) Compose(ctx context.Context, in Inputs) (image.Image, error) {
	if in.BaseURL == "" || in.PhotoURL == "" || in.OverlayURL == "" {
		return nil, fmt.Errorf("base, photo and overlay images are required")
	}
	if in.QRImage == nil && in.QRURL == "" {
		return nil, fmt.Errorf("qr image is required")
	}

	var base, photo, overlay, qrImg image.Image

	// All sources must finish loading before compositing begins
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		base, err = c.fetchImage(gctx, in.BaseURL)
		return err
	})
	g.Go(func() (err error) {
		photo, err = c.fetchImage(gctx, in.PhotoURL)
		return err
	})
	g.Go(func() (err error) {
		overlay, err = c.fetchImage(gctx, in.OverlayURL)
		return err
	})
	if in.QRImage != nil {
		qrImg = in.QRImage
	} else {
		g.Go(func() (err error) {
			qrImg, err = c.fetchImage(gctx, in.QRURL)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Canvas takes the base template's dimensions
	canvas := image.NewRGBA(base.Bounds())
	xdraw.ApproxBiLinear.Scale(canvas, canvas.Bounds(), base, base.Bounds(), xdraw.Src, nil)

	// Photo stretched to exactly fill the window rectangle
	window := image.Rect(in.Window.X, in.Window.Y, in.Window.X+in.Window.Width, in.Window.Y+in.Window.Height)
	xdraw.ApproxBiLinear.Scale(canvas, window, photo, photo.Bounds(), xdraw.Over, nil)

	// QR placed at its fractional offset and size within the window
	qrEdge := int(in.QR.WidthFrac * float64(in.Window.Width))
	qrX := in.Window.X + int(in.QR.XFrac*float64(in.Window.Width))
	qrY := in.Window.Y + int(in.QR.YFrac*float64(in.Window.Height))
	qrRect := image.Rect(qrX, qrY, qrX+qrEdge, qrY+qrEdge)
	xdraw.ApproxBiLinear.Scale(canvas, qrRect, qrImg, qrImg.Bounds(), xdraw.Over, nil)

	// Overlay (glass glare, frame) on top at full canvas size
	xdraw.ApproxBiLinear.Scale(canvas, canvas.Bounds(), overlay, overlay.Bounds(), xdraw.Over, nil)

	return canvas, nil
}

// fetchImage downloads and decodes a single source image
func (c *Compositor) fetchImage(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch %s returned status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", url, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", url, err)
	}

	return img, nil
}
