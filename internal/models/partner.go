package models

import (
	"time"

	"gorm.io/gorm"
)

// Partner represents a print-shop operator with dashboard access
type Partner struct {
	gorm.Model
	Email       string `gorm:"uniqueIndex:idx_partners_email_not_deleted,where:deleted_at IS NULL;not null"`
	Name        string `gorm:"not null;default:''"`
	ShopName    string `gorm:"not null;default:''"`
	Role        string `gorm:"not null;default:'operator'"` // enum: 'operator' or 'admin'
	LastLoginAt *time.Time

	// Associations
	Identities []PartnerIdentity `gorm:"constraint:OnDelete:CASCADE;"`
}
