package video

import (
	"errors"
	"net/http"

	"github.com/dashqrcodes/dash-memories/internal/drafts"
	"github.com/gin-gonic/gin"
)

// EnqueueFinalize enqueues a background finalization task for a slug and
// upload id. Injected so handlers stay decoupled from the worker package.
type EnqueueFinalize func(slug, uploadID string) error

// CreateUploadHandler requests a direct-upload target from the video host
// for the given draft. The browser uploads straight to the returned URL;
// the upload id comes back later through the finalize call.
func CreateUploadHandler(store *drafts.Store, mux *MuxClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")

		if _, err := store.Get(c.Request.Context(), slug); err != nil {
			if errors.Is(err, drafts.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch draft"})
			return
		}

		upload, err := mux.CreateDirectUpload(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "video host unavailable"})
			return
		}

		c.JSON(http.StatusCreated, upload)
	}
}

// FinalizeVideoHandler kicks off background finalization: the worker polls
// the video host until the playback id is ready, then writes it to the
// draft. Returns 202 immediately.
func FinalizeVideoHandler(store *drafts.Store, enqueue EnqueueFinalize) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")

		var req struct {
			UploadID string `json:"upload_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.UploadID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "upload_id is required"})
			return
		}

		if _, err := store.Get(c.Request.Context(), slug); err != nil {
			if errors.Is(err, drafts.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch draft"})
			return
		}

		if err := enqueue(slug, req.UploadID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue finalization"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"status": "finalizing"})
	}
}

// GetSourceHandler resolves the authoritative video source for a slug.
// A published memorial under the same slug supplies the fallback playback
// id when the draft itself was never finalized.
func GetSourceHandler(store *drafts.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")

		draft, err := store.Get(c.Request.Context(), slug)
		if errors.Is(err, drafts.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch draft"})
			return
		}

		var fallback string
		if story, err := store.GetStory(c.Request.Context(), slug); err == nil && story.VideoPlaybackID != nil {
			fallback = *story.VideoPlaybackID
		}

		var playbackID, tempURL string
		if draft.VideoPlaybackID != nil {
			playbackID = *draft.VideoPlaybackID
		}
		if draft.VideoTempURL != nil {
			tempURL = *draft.VideoTempURL
		}

		c.JSON(http.StatusOK, Resolve(playbackID, tempURL, fallback))
	}
}
