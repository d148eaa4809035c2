package drafts

import (
	"errors"
	"net/http"
	"time"

	"github.com/dashqrcodes/dash-memories/internal/models"
	"github.com/gin-gonic/gin"
)

// createDraftRequest is the body for draft creation. With ephemeral set
// the draft gets a random token slug instead of a permanent numeric one.
type createDraftRequest struct {
	Ephemeral bool    `json:"ephemeral"`
	FullName  *string `json:"full_name"`
	BirthDate *string `json:"birth_date"`
	DeathDate *string `json:"death_date"`
	UserID    *string `json:"user_id"`
	Email     *string `json:"email"`
}

// saveDraftRequest carries a partial field update; absent fields are left
// unchanged. Status is not settable here; it only moves via checkout.
type saveDraftRequest struct {
	FullName     *string `json:"full_name"`
	BirthDate    *string `json:"birth_date"`
	DeathDate    *string `json:"death_date"`
	PhotoURL     *string `json:"photo_url"`
	VideoTempURL *string `json:"video_temp_url"`
	UserID       *string `json:"user_id"`
	Email        *string `json:"email"`
}

// draftResponse is the JSON shape returned for a draft
type draftResponse struct {
	Slug            string  `json:"slug"`
	URL             string  `json:"url"`
	Status          string  `json:"status"`
	FullName        *string `json:"full_name,omitempty"`
	BirthDate       *string `json:"birth_date,omitempty"`
	DeathDate       *string `json:"death_date,omitempty"`
	PhotoURL        *string `json:"photo_url,omitempty"`
	MockupURL       *string `json:"mockup_url,omitempty"`
	VideoTempURL    *string `json:"video_temp_url,omitempty"`
	VideoPlaybackID *string `json:"video_playback_id,omitempty"`
	UpdatedAt       string  `json:"updated_at"`
}

func toResponse(d *models.Draft, publicBaseURL string) draftResponse {
	return draftResponse{
		Slug:            d.Slug,
		URL:             publicBaseURL + "/memories/" + d.Slug,
		Status:          d.Status,
		FullName:        d.FullName,
		BirthDate:       d.BirthDate,
		DeathDate:       d.DeathDate,
		PhotoURL:        d.PhotoURL,
		MockupURL:       d.MockupURL,
		VideoTempURL:    d.VideoTempURL,
		VideoPlaybackID: d.VideoPlaybackID,
		UpdatedAt:       d.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// validDate reports whether a supplied date field is YYYY-MM-DD
func validDate(s *string) bool {
	if s == nil {
		return true
	}
	_, err := time.Parse("2006-01-02", *s)
	return err == nil
}

// CreateDraftHandler creates a new draft and returns its slug and
// continuation URL. The primary path allocates a permanent numeric slug;
// the ephemeral path hands out a random token immediately.
func CreateDraftHandler(store *Store, allocator *Allocator, publicBaseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// An empty body is fine (defaults apply); anything unparseable is a client error
		var req createDraftRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
		}

		if !validDate(req.BirthDate) || !validDate(req.DeathDate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dates must be YYYY-MM-DD"})
			return
		}

		fields := Fields{
			FullName:  req.FullName,
			BirthDate: req.BirthDate,
			DeathDate: req.DeathDate,
			UserID:    req.UserID,
			Email:     req.Email,
		}

		var draft *models.Draft
		var err error
		if req.Ephemeral {
			draft, err = store.CreateEphemeral(c.Request.Context(), fields)
		} else {
			draft, err = allocator.AllocateDraft(c.Request.Context(), fields)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create draft"})
			return
		}

		c.JSON(http.StatusCreated, toResponse(draft, publicBaseURL))
	}
}

// GetDraftHandler returns the full draft record for a slug
func GetDraftHandler(store *Store, publicBaseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")

		draft, err := store.Get(c.Request.Context(), slug)
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch draft"})
			return
		}

		c.JSON(http.StatusOK, toResponse(draft, publicBaseURL))
	}
}

// SaveDraftHandler merges partial fields into the draft for a slug.
// Saving is an upsert: posting to an unknown slug creates the draft,
// and re-submitting identical fields is idempotent.
func SaveDraftHandler(store *Store, publicBaseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")

		var req saveDraftRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		if !validDate(req.BirthDate) || !validDate(req.DeathDate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dates must be YYYY-MM-DD"})
			return
		}

		draft, err := store.Upsert(c.Request.Context(), slug, Fields{
			FullName:     req.FullName,
			BirthDate:    req.BirthDate,
			DeathDate:    req.DeathDate,
			PhotoURL:     req.PhotoURL,
			VideoTempURL: req.VideoTempURL,
			UserID:       req.UserID,
			Email:        req.Email,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save draft"})
			return
		}

		c.JSON(http.StatusOK, toResponse(draft, publicBaseURL))
	}
}

// LatestDraftHandler returns the owner's most recently updated draft.
// Identity comes from the session (set by auth middleware) with query
// parameters as a fallback for the anonymous continuation flow.
func LatestDraftHandler(store *Store, publicBaseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		email := c.Query("email")

		if v, ok := c.Get("user_id"); ok && userID == "" {
			if s, ok := v.(string); ok {
				userID = s
			}
		}
		if v, ok := c.Get("user_email"); ok && email == "" {
			if s, ok := v.(string); ok {
				email = s
			}
		}

		if userID == "" && email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id or email is required"})
			return
		}

		draft, err := store.FindLatestByOwner(c.Request.Context(), userID, email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up draft"})
			return
		}
		if draft == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no draft for owner"})
			return
		}

		c.JSON(http.StatusOK, toResponse(draft, publicBaseURL))
	}
}
