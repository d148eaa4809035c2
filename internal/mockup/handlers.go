package mockup

import (
	"bytes"
	"errors"
	"image/png"
	"net/http"

	"github.com/dashqrcodes/dash-memories/internal/drafts"
	"github.com/dashqrcodes/dash-memories/internal/products"
	"github.com/dashqrcodes/dash-memories/internal/qr"
	"github.com/dashqrcodes/dash-memories/internal/storage"
	"github.com/gin-gonic/gin"
)

// generateRequest selects the product template and optionally overrides
// the photo; by default the draft's stored photo_url is used
type generateRequest struct {
	Product  string `json:"product"`
	PhotoURL string `json:"photo_url"`
}

// GenerateHandler composites a mockup for a slug, stores it, and writes
// the resulting URL back onto the draft. The QR code is rendered
// in-process and points at the memorial page for the slug.
func GenerateHandler(store *drafts.Store, registry *products.Registry, compositor *Compositor, blobs storage.Storage, publicBaseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")

		var req generateRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Product == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "product is required"})
			return
		}

		draft, err := store.Get(c.Request.Context(), slug)
		if errors.Is(err, drafts.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch draft"})
			return
		}

		product, ok := registry.Get(req.Product)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown product: " + req.Product})
			return
		}

		photoURL := req.PhotoURL
		if photoURL == "" && draft.PhotoURL != nil {
			photoURL = *draft.PhotoURL
		}
		if photoURL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "draft has no photo"})
			return
		}

		qrImage, err := qr.RenderImage(publicBaseURL+"/memories/"+slug, qr.DefaultSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render QR code"})
			return
		}

		img, err := compositor.Compose(c.Request.Context(), Inputs{
			BaseURL:    product.BaseImageURL,
			PhotoURL:   photoURL,
			OverlayURL: product.OverlayImageURL,
			QRImage:    qrImage,
			Window:     product.Window,
			QR:         product.QR,
		})
		if err != nil {
			// Any failed source load fails the whole pass; nothing is stored
			c.JSON(http.StatusBadGateway, gin.H{"error": "mockup composition failed"})
			return
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode mockup"})
			return
		}

		mockupURL, err := blobs.Store(c.Request.Context(), "mockups/"+slug+"-"+product.Name+".png", buf.Bytes(), "image/png")
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to store mockup"})
			return
		}

		if _, err := store.Upsert(c.Request.Context(), slug, drafts.Fields{MockupURL: &mockupURL}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save mockup URL"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"slug": slug, "mockup_url": mockupURL})
	}
}
