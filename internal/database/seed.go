package database

import (
	"log"

	"github.com/dashqrcodes/dash-memories/internal/models"
	"gorm.io/gorm"
)

// SeedDevData populates the database with development test data.
// Idempotent: skips if data already exists.
func SeedDevData(db *gorm.DB) error {
	// Check if seed data already exists
	var existingStory models.Story
	result := db.Where("slug = ?", "000007").First(&existingStory)
	if result.Error == nil {
		log.Println("Seed data already exists, skipping")
		return nil
	}

	// Published memorial occupying a numeric slug, so a fresh allocation
	// in dev starts above it.
	story := models.Story{
		Slug: "000007",
		Name: "Eleanor Whitfield",
	}

	if err := db.Create(&story).Error; err != nil {
		return err
	}

	// In-progress draft with a numeric slug
	name := "Arthur Whitfield"
	birth := "1948-03-12"
	email := "dev@dashmemories.local"
	draft := models.Draft{
		Slug:      "000004",
		Status:    models.DraftStatusDraft,
		FullName:  &name,
		BirthDate: &birth,
		Email:     &email,
	}

	if err := db.Create(&draft).Error; err != nil {
		return err
	}

	// Early-path draft with a random token slug; the allocator must
	// ignore it when computing the next numeric slug.
	ephemeral := models.Draft{
		Slug:   "mem-7f3a1b2c",
		Status: models.DraftStatusDraft,
		Email:  &email,
	}

	if err := db.Create(&ephemeral).Error; err != nil {
		return err
	}

	log.Println("Seeded dev data: 1 story, 2 drafts")
	return nil
}
