package video

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dashqrcodes/dash-memories/internal/drafts"
	"github.com/dashqrcodes/dash-memories/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type videoFixture struct {
	db       *gorm.DB
	store    *drafts.Store
	router   *gin.Engine
	enqueued [][2]string
}

func newVideoFixture(t *testing.T) *videoFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Draft{}, &models.Story{}))

	f := &videoFixture{
		db:    db,
		store: drafts.NewStore(db),
	}

	mux := NewMuxClient("", "", true)
	enqueue := func(slug, uploadID string) error {
		f.enqueued = append(f.enqueued, [2]string{slug, uploadID})
		return nil
	}

	router := gin.New()
	router.POST("/drafts/:slug/video/uploads", CreateUploadHandler(f.store, mux))
	router.POST("/drafts/:slug/video/finalize", FinalizeVideoHandler(f.store, enqueue))
	router.GET("/drafts/:slug/video", GetSourceHandler(f.store))
	f.router = router

	return f
}

func (f *videoFixture) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	resp := map[string]interface{}{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func (f *videoFixture) createDraft(t *testing.T, slug string, fields drafts.Fields) {
	t.Helper()
	_, err := f.store.Create(context.Background(), slug, fields)
	require.NoError(t, err)
}

func TestCreateUpload(t *testing.T) {
	f := newVideoFixture(t)
	f.createDraft(t, "000001", drafts.Fields{})

	w, resp := f.do(t, http.MethodPost, "/drafts/000001/video/uploads", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, resp["upload_id"])
	assert.NotEmpty(t, resp["upload_url"])
}

func TestCreateUploadUnknownDraft(t *testing.T) {
	f := newVideoFixture(t)

	w, _ := f.do(t, http.MethodPost, "/drafts/999999/video/uploads", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFinalizeVideo(t *testing.T) {
	f := newVideoFixture(t)
	f.createDraft(t, "000001", drafts.Fields{})

	w, resp := f.do(t, http.MethodPost, "/drafts/000001/video/finalize", gin.H{"upload_id": "up-123"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "finalizing", resp["status"])
	assert.Equal(t, [][2]string{{"000001", "up-123"}}, f.enqueued)
}

func TestFinalizeVideoRequiresUploadID(t *testing.T) {
	f := newVideoFixture(t)
	f.createDraft(t, "000001", drafts.Fields{})

	w, _ := f.do(t, http.MethodPost, "/drafts/000001/video/finalize", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.enqueued)
}

func TestGetSourcePrefersFinalizedAsset(t *testing.T) {
	f := newVideoFixture(t)
	playback := "pb-abc"
	temp := "https://tmp.example.com/v.mp4"
	f.createDraft(t, "000001", drafts.Fields{VideoPlaybackID: &playback, VideoTempURL: &temp})

	w, resp := f.do(t, http.MethodGet, "/drafts/000001/video", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mux", resp["kind"])
	assert.Equal(t, "pb-abc", resp["playback_id"])
}

func TestGetSourceFallsBackToPublishedMemorial(t *testing.T) {
	f := newVideoFixture(t)
	f.createDraft(t, "000007", drafts.Fields{})

	storyPlayback := "pb-story"
	require.NoError(t, f.db.Create(&models.Story{
		Slug:            "000007",
		Name:            "Eleanor Whitfield",
		VideoPlaybackID: &storyPlayback,
	}).Error)

	w, resp := f.do(t, http.MethodGet, "/drafts/000007/video", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mux", resp["kind"])
	assert.Equal(t, "pb-story", resp["playback_id"])
}

func TestGetSourceNone(t *testing.T) {
	f := newVideoFixture(t)
	f.createDraft(t, "000001", drafts.Fields{})

	w, resp := f.do(t, http.MethodGet, "/drafts/000001/video", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "none", resp["kind"])
	assert.NotContains(t, resp, "playback_id")
	assert.NotContains(t, resp, "url")
}
