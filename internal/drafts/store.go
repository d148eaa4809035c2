package drafts

import (
	"context"
	"errors"
	"fmt"

	"github.com/dashqrcodes/dash-memories/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store-level sentinel errors. ErrNotFound is a normal outcome for lookups,
// not a fault. ErrSlugTaken is surfaced distinctly so the allocator can
// re-allocate and retry.
var (
	ErrNotFound  = errors.New("draft not found")
	ErrSlugTaken = errors.New("slug already in use")
)

// Fields holds the mutable draft fields a caller may supply on create or
// save. Nil means "leave unchanged"; only non-nil fields are written.
// Status is deliberately absent: it only moves through AdvanceStatus.
type Fields struct {
	FullName                *string
	BirthDate               *string
	DeathDate               *string
	PhotoURL                *string
	MockupURL               *string
	VideoTempURL            *string
	VideoPlaybackID         *string
	StripeCheckoutSessionID *string
	UserID                  *string
	Email                   *string
}

// updates returns only the supplied fields as a column-keyed map for GORM
func (f Fields) updates() map[string]interface{} {
	u := map[string]interface{}{}
	if f.FullName != nil {
		u["full_name"] = *f.FullName
	}
	if f.BirthDate != nil {
		u["birth_date"] = *f.BirthDate
	}
	if f.DeathDate != nil {
		u["death_date"] = *f.DeathDate
	}
	if f.PhotoURL != nil {
		u["photo_url"] = *f.PhotoURL
	}
	if f.MockupURL != nil {
		u["mockup_url"] = *f.MockupURL
	}
	if f.VideoTempURL != nil {
		u["video_temp_url"] = *f.VideoTempURL
	}
	if f.VideoPlaybackID != nil {
		u["video_playback_id"] = *f.VideoPlaybackID
	}
	if f.StripeCheckoutSessionID != nil {
		u["stripe_checkout_session_id"] = *f.StripeCheckoutSessionID
	}
	if f.UserID != nil {
		u["user_id"] = *f.UserID
	}
	if f.Email != nil {
		u["email"] = *f.Email
	}
	return u
}

// Store persists drafts keyed by slug
type Store struct {
	db *gorm.DB
}

// NewStore creates a draft store backed by the given database
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new draft with the given slug and status "draft".
// A duplicate slug surfaces as ErrSlugTaken; the database unique index
// is the authority, not an application-level existence check.
func (s *Store) Create(ctx context.Context, slug string, fields Fields) (*models.Draft, error) {
	draft := models.Draft{
		Slug:                    slug,
		Status:                  models.DraftStatusDraft,
		FullName:                fields.FullName,
		BirthDate:               fields.BirthDate,
		DeathDate:               fields.DeathDate,
		PhotoURL:                fields.PhotoURL,
		MockupURL:               fields.MockupURL,
		VideoTempURL:            fields.VideoTempURL,
		VideoPlaybackID:         fields.VideoPlaybackID,
		StripeCheckoutSessionID: fields.StripeCheckoutSessionID,
		UserID:                  fields.UserID,
		Email:                   fields.Email,
	}

	if err := s.db.WithContext(ctx).Create(&draft).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrSlugTaken, slug)
		}
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	return &draft, nil
}

// CreateEphemeral inserts a new draft under a random token slug.
// This is the early, low-friction path: the visitor gets a shareable URL
// immediately, before a permanent numeric slug has been allocated.
func (s *Store) CreateEphemeral(ctx context.Context, fields Fields) (*models.Draft, error) {
	slug := "mem-" + uuid.New().String()[:8]
	return s.Create(ctx, slug, fields)
}

// Get returns the draft with the given slug, or ErrNotFound
func (s *Store) Get(ctx context.Context, slug string) (*models.Draft, error) {
	var draft models.Draft
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&draft).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch draft: %w", err)
	}
	return &draft, nil
}

// Upsert merges the supplied fields into the draft with the given slug,
// creating it first if absent. Idempotent per slug: re-submitting the same
// fields leaves the stored state unchanged except for updated_at.
func (s *Store) Upsert(ctx context.Context, slug string, fields Fields) (*models.Draft, error) {
	draft, err := s.Get(ctx, slug)
	if errors.Is(err, ErrNotFound) {
		created, createErr := s.Create(ctx, slug, fields)
		if errors.Is(createErr, ErrSlugTaken) {
			// Lost a create race; fall through to the merge path
			draft, err = s.Get(ctx, slug)
			if err != nil {
				return nil, err
			}
		} else if createErr != nil {
			return nil, createErr
		} else {
			return created, nil
		}
	} else if err != nil {
		return nil, err
	}

	updates := fields.updates()
	if len(updates) == 0 {
		return draft, nil
	}

	if err := s.db.WithContext(ctx).Model(draft).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update draft: %w", err)
	}

	return draft, nil
}

// FindLatestByOwner returns the most-recently-updated draft belonging to
// the given user id or email, or nil when the owner has no drafts.
// Ties break by updated_at descending; at most one record is returned.
func (s *Store) FindLatestByOwner(ctx context.Context, userID, email string) (*models.Draft, error) {
	if userID == "" && email == "" {
		return nil, nil
	}

	q := s.db.WithContext(ctx).Model(&models.Draft{})
	switch {
	case userID != "" && email != "":
		q = q.Where("user_id = ? OR email = ?", userID, email)
	case userID != "":
		q = q.Where("user_id = ?", userID)
	default:
		q = q.Where("email = ?", email)
	}

	var draft models.Draft
	err := q.Order("updated_at DESC").First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up latest draft: %w", err)
	}

	return &draft, nil
}

// AdvanceStatus moves a draft's status forward along
// draft -> checkout_pending -> paid. Re-applying the current status is an
// idempotent no-op; anything that would move the status backward or skip
// a step is rejected. Replayed payment events can therefore never regress
// a paid draft.
func (s *Store) AdvanceStatus(ctx context.Context, slug, to string) error {
	draft, err := s.Get(ctx, slug)
	if err != nil {
		return err
	}

	if draft.Status == to {
		return nil
	}

	if !models.CanAdvance(draft.Status, to) {
		return fmt.Errorf("invalid status transition %s -> %s for slug %s", draft.Status, to, slug)
	}

	if err := s.db.WithContext(ctx).Model(draft).Update("status", to).Error; err != nil {
		return fmt.Errorf("failed to advance status: %w", err)
	}

	return nil
}

// Slugs returns every slug in the draft namespace
func (s *Store) Slugs(ctx context.Context) ([]string, error) {
	var slugs []string
	if err := s.db.WithContext(ctx).Model(&models.Draft{}).Pluck("slug", &slugs).Error; err != nil {
		return nil, fmt.Errorf("failed to list draft slugs: %w", err)
	}
	return slugs, nil
}

// GetStory returns the published memorial with the given slug, or
// ErrNotFound. Stories are read-only from this service's perspective.
func (s *Store) GetStory(ctx context.Context, slug string) (*models.Story, error) {
	var story models.Story
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&story).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch story: %w", err)
	}
	return &story, nil
}

// StorySlugs returns every slug in the published-memorial namespace
func (s *Store) StorySlugs(ctx context.Context) ([]string, error) {
	var slugs []string
	if err := s.db.WithContext(ctx).Model(&models.Story{}).Pluck("slug", &slugs).Error; err != nil {
		return nil, fmt.Errorf("failed to list story slugs: %w", err)
	}
	return slugs, nil
}
