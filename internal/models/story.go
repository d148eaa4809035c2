package models

import "gorm.io/gorm"

// Story represents a published, permanent memorial. Stories share the
// slug namespace with drafts: the allocator consults both tables so a
// new draft can never collide with an already-published memorial.
type Story struct {
	gorm.Model
	Slug            string  `gorm:"uniqueIndex;not null"`
	Name            string  `gorm:"not null;default:''"`
	VideoPlaybackID *string `gorm:"column:video_playback_id"`
}
