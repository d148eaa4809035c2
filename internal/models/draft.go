package models

import "gorm.io/gorm"

// Draft status constants. Status only moves forward:
// draft -> checkout_pending -> paid.
const (
	DraftStatusDraft           = "draft"
	DraftStatusCheckoutPending = "checkout_pending"
	DraftStatusPaid            = "paid"
)

// statusTransitions maps each status to the only status it may advance
// to. There is no failed or expired state: abandoned checkout sessions
// simply leave the draft parked in checkout_pending.
var statusTransitions = map[string]string{
	DraftStatusDraft:           DraftStatusCheckoutPending,
	DraftStatusCheckoutPending: DraftStatusPaid,
}

// CanAdvance reports whether from -> to is a defined forward transition
func CanAdvance(from, to string) bool {
	next, ok := statusTransitions[from]
	return ok && next == to
}

// NextStatus returns the status that follows the given one, or "" for
// terminal or unknown statuses
func NextStatus(status string) string {
	return statusTransitions[status]
}

// Draft represents one in-progress memorial, keyed by its public slug.
// All descriptive fields are nullable until the visitor supplies them.
type Draft struct {
	gorm.Model
	Slug                    string  `gorm:"uniqueIndex;not null"`
	Status                  string  `gorm:"not null;default:'draft';index"`
	FullName                *string `gorm:"column:full_name"`
	BirthDate               *string `gorm:"column:birth_date"`
	DeathDate               *string `gorm:"column:death_date"`
	PhotoURL                *string `gorm:"column:photo_url;type:text"`
	MockupURL               *string `gorm:"column:mockup_url;type:text"`
	VideoTempURL            *string `gorm:"column:video_temp_url;type:text"`
	VideoPlaybackID         *string `gorm:"column:video_playback_id"`
	StripeCheckoutSessionID *string `gorm:"column:stripe_checkout_session_id"`
	UserID                  *string `gorm:"column:user_id;index"`
	Email                   *string `gorm:"index"`
}
