// Package checkout drives a draft's status through its paid-order
// lifecycle: draft -> checkout_pending -> paid. The transition table
// itself lives in models so the store and handlers share one guard.
package checkout

import (
	"errors"
	"net/http"

	"github.com/dashqrcodes/dash-memories/internal/drafts"
	"github.com/dashqrcodes/dash-memories/internal/models"
	"github.com/dashqrcodes/dash-memories/internal/products"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// EnqueueFulfillment enqueues a background fulfillment task for a paid
// order. Injected so handlers stay decoupled from the worker package.
type EnqueueFulfillment func(slug string) error

// beginRequest selects the product being bought and any customization
// options, validated against the product's options schema.
type beginRequest struct {
	Product string                 `json:"product"`
	Options map[string]interface{} `json:"options"`
}

// BeginCheckoutHandler creates a Stripe Checkout Session for a draft and
// advances its status to checkout_pending. Session-creation failure is
// reported without touching the draft, so the status stays at draft.
func BeginCheckoutHandler(db *gorm.DB, store *drafts.Store, stripe *StripeClient, registry *products.Registry, publicBaseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")

		var req beginRequest
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

		if draft.Status == models.DraftStatusPaid {
			c.JSON(http.StatusConflict, gin.H{"error": "draft is already paid"})
			return
		}

		product, ok := registry.Get(req.Product)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown product: " + req.Product})
			return
		}

		// Validate customization options against the product's schema
		if product.OptionsSchemaPath != "" && len(req.Options) > 0 {
			if err := products.ValidateOrderOptions(product.OptionsSchemaPath, req.Options); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		successURL := publicBaseURL + "/memories/" + slug + "/thank-you"
		cancelURL := publicBaseURL + "/memories/" + slug + "/checkout"

		session, err := stripe.CreateSession(
			c.Request.Context(),
			slug,
			product.DisplayName,
			product.PriceCents,
			product.Currency,
			successURL,
			cancelURL,
		)
		if err != nil {
			// No partial transition: the draft stays at its prior status
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable"})
			return
		}

		// Record the session for later correlation, then advance.
		// Re-beginning checkout while already pending replaces the session
		// id; the status advance is an idempotent no-op in that case.
		if _, err := store.Upsert(c.Request.Context(), slug, drafts.Fields{
			StripeCheckoutSessionID: &session.ID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record checkout session"})
			return
		}

		if err := store.AdvanceStatus(c.Request.Context(), slug, models.DraftStatusCheckoutPending); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update draft status"})
			return
		}

		// Upsert the order row so the fulfillment side has product and
		// amount once payment confirms
		var order models.Order
		result := db.WithContext(c.Request.Context()).Where("slug = ?", slug).First(&order)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			order = models.Order{
				Slug:                    slug,
				ProductName:             product.Name,
				AmountCents:             product.PriceCents,
				Currency:                product.Currency,
				StripeCheckoutSessionID: session.ID,
				FulfillmentStatus:       models.FulfillmentStatusPending,
			}
			if err := db.WithContext(c.Request.Context()).Create(&order).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
				return
			}
		} else if result.Error == nil {
			db.WithContext(c.Request.Context()).Model(&order).Updates(map[string]interface{}{
				"product_name":               product.Name,
				"amount_cents":               product.PriceCents,
				"currency":                   product.Currency,
				"stripe_checkout_session_id": session.ID,
			})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up order"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"session_id": session.ID,
			"url":        session.URL,
			"status":     models.DraftStatusCheckoutPending,
		})
	}
}

// verifyRequest carries the session id the caller believes it paid
type verifyRequest struct {
	SessionID string `json:"session_id"`
}

// VerifyCheckoutHandler confirms payment for a slug and advances the
// draft to paid. The supplied session id must match the one recorded when
// checkout began; a mismatch is a conflict, not a payment. On success the
// order is handed to background fulfillment.
func VerifyCheckoutHandler(db *gorm.DB, store *drafts.Store, stripe *StripeClient, enqueue EnqueueFulfillment) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")

		var req verifyRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
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

		// Already paid: verification is idempotent
		if draft.Status == models.DraftStatusPaid {
			c.JSON(http.StatusOK, gin.H{"slug": slug, "status": models.DraftStatusPaid})
			return
		}

		var stored string
		if draft.StripeCheckoutSessionID != nil {
			stored = *draft.StripeCheckoutSessionID
		}

		// The session being confirmed must be the session that was created
		if stored != "" && req.SessionID != "" && stored != req.SessionID {
			c.JSON(http.StatusConflict, gin.H{"error": "session id does not match checkout session"})
			return
		}

		sessionID := stored
		if sessionID == "" {
			sessionID = req.SessionID
		}
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
			return
		}

		paid, err := stripe.VerifySession(c.Request.Context(), sessionID)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable"})
			return
		}
		if !paid {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "payment not confirmed", "status": draft.Status})
			return
		}

		if err := store.AdvanceStatus(c.Request.Context(), slug, models.DraftStatusPaid); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}

		// Hand the order to fulfillment. A failed enqueue is reported but
		// does not undo the paid status; the scheduler sweep re-drives
		// orders stuck in pending.
		var order models.Order
		if err := db.WithContext(c.Request.Context()).Where("slug = ?", slug).First(&order).Error; err == nil {
			if enqueueErr := enqueue(slug); enqueueErr != nil {
				db.WithContext(c.Request.Context()).Model(&order).Update("error_message", "failed to enqueue fulfillment")
			}
		}

		c.JSON(http.StatusOK, gin.H{"slug": slug, "status": models.DraftStatusPaid})
	}
}
