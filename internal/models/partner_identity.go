package models

import (
	"time"

	"github.com/dashqrcodes/dash-memories/internal/crypto"
	"gorm.io/gorm"
)

var encryptor *crypto.TokenEncryptor

// InitEncryption initializes the token encryptor for the models package.
// Must be called before any database operations involving PartnerIdentity.
func InitEncryption(encryptionKey string) error {
	var err error
	encryptor, err = crypto.NewTokenEncryptor(encryptionKey)
	return err
}

// PartnerIdentity represents a partner's OAuth identity with encrypted token storage
type PartnerIdentity struct {
	gorm.Model
	PartnerID      uint    `gorm:"not null;index"`
	Partner        Partner `gorm:"constraint:OnDelete:CASCADE;"`
	Provider       string  `gorm:"not null"` // e.g., "google"
	ProviderUserID string  `gorm:"not null;uniqueIndex:idx_partner_identities_provider_user,where:deleted_at IS NULL"`
	AccessToken    string  `gorm:"type:text"` // stored encrypted
	RefreshToken   string  `gorm:"type:text"` // stored encrypted
	TokenExpiry    *time.Time
}

// BeforeSave encrypts tokens before saving to database.
// Always encrypts non-empty tokens (GCM produces different output each time due to random nonce).
func (p *PartnerIdentity) BeforeSave(tx *gorm.DB) error {
	if encryptor == nil {
		// Allow operations without encryption (e.g., for testing or if encryption not initialized)
		return nil
	}

	if p.AccessToken != "" {
		encrypted, err := encryptor.Encrypt(p.AccessToken)
		if err != nil {
			return err
		}
		p.AccessToken = encrypted
	}

	if p.RefreshToken != "" {
		encrypted, err := encryptor.Encrypt(p.RefreshToken)
		if err != nil {
			return err
		}
		p.RefreshToken = encrypted
	}

	return nil
}

// AfterFind decrypts tokens after loading from database
func (p *PartnerIdentity) AfterFind(tx *gorm.DB) error {
	if encryptor == nil {
		return nil
	}

	if p.AccessToken != "" {
		decrypted, err := encryptor.Decrypt(p.AccessToken)
		if err != nil {
			return err
		}
		p.AccessToken = decrypted
	}

	if p.RefreshToken != "" {
		decrypted, err := encryptor.Decrypt(p.RefreshToken)
		if err != nil {
			return err
		}
		p.RefreshToken = decrypted
	}

	return nil
}
