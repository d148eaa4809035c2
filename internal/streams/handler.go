package streams

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dashqrcodes/dash-memories/internal/models"
	"gorm.io/gorm"
)

// HandleFulfillmentAck returns a handler function that updates Order
// records based on print-shop acknowledgements
func HandleFulfillmentAck(db *gorm.DB) func(FulfillmentAck) error {
	return func(ack FulfillmentAck) error {
		var order models.Order

		if err := db.Where("slug = ?", ack.Slug).First(&order).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("order not found: %s", ack.Slug)
			}
			return fmt.Errorf("failed to find order: %w", err)
		}

		now := time.Now()
		updates := map[string]interface{}{}

		if ack.Status == "acknowledged" {
			updates["fulfillment_status"] = models.FulfillmentStatusAcknowledged
			updates["acknowledged_at"] = now

			slog.Info("Order acknowledged by print shop",
				"slug", ack.Slug,
				"status", "acknowledged",
			)
		} else if ack.Status == "failed" {
			updates["fulfillment_status"] = models.FulfillmentStatusFailed
			updates["error_message"] = ack.Note

			slog.Error("Order rejected by print shop",
				"slug", ack.Slug,
				"status", "failed",
				"note", ack.Note,
			)
		} else {
			return fmt.Errorf("unknown status: %s", ack.Status)
		}

		if err := db.Model(&order).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		return nil
	}
}
