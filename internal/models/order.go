package models

import (
	"time"

	"gorm.io/gorm"
)

// Order fulfillment status constants
const (
	FulfillmentStatusPending      = "pending"
	FulfillmentStatusSent         = "sent"
	FulfillmentStatusAcknowledged = "acknowledged"
	FulfillmentStatusFailed       = "failed"
)

// Order records a paid memorial purchase and tracks hand-off to the
// print-shop partner. One order per slug.
type Order struct {
	gorm.Model
	Slug                    string `gorm:"uniqueIndex;not null"`
	ProductName             string `gorm:"not null"`
	AmountCents             int64  `gorm:"not null"`
	Currency                string `gorm:"not null;default:'usd'"`
	StripeCheckoutSessionID string `gorm:"column:stripe_checkout_session_id"`
	FulfillmentStatus       string `gorm:"not null;default:'pending';index"`
	ErrorMessage            string `gorm:"column:error_message;type:text"`
	SubmittedAt             *time.Time
	AcknowledgedAt          *time.Time
}
