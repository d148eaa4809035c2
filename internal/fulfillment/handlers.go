package fulfillment

import (
	"net/http"
	"time"

	"github.com/dashqrcodes/dash-memories/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// orderResponse is the JSON shape shown on the partner dashboard
type orderResponse struct {
	Slug              string `json:"slug"`
	ProductName       string `json:"product_name"`
	AmountCents       int64  `json:"amount_cents"`
	Currency          string `json:"currency"`
	FulfillmentStatus string `json:"fulfillment_status"`
	ErrorMessage      string `json:"error_message,omitempty"`
	SubmittedAt       string `json:"submitted_at,omitempty"`
	AcknowledgedAt    string `json:"acknowledged_at,omitempty"`
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ListOrdersHandler returns recent orders for the print-shop dashboard,
// newest first, optionally filtered by fulfillment status
func ListOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := db.WithContext(c.Request.Context()).Model(&models.Order{}).Order("created_at DESC").Limit(100)
		if status := c.Query("status"); status != "" {
			q = q.Where("fulfillment_status = ?", status)
		}

		var orders []models.Order
		if err := q.Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
			return
		}

		out := make([]orderResponse, 0, len(orders))
		for _, o := range orders {
			out = append(out, orderResponse{
				Slug:              o.Slug,
				ProductName:       o.ProductName,
				AmountCents:       o.AmountCents,
				Currency:          o.Currency,
				FulfillmentStatus: o.FulfillmentStatus,
				ErrorMessage:      o.ErrorMessage,
				SubmittedAt:       formatTime(o.SubmittedAt),
				AcknowledgedAt:    formatTime(o.AcknowledgedAt),
			})
		}

		c.JSON(http.StatusOK, gin.H{"orders": out})
	}
}
