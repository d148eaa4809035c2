package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dashqrcodes/dash-memories/internal/drafts"
	"github.com/dashqrcodes/dash-memories/internal/models"
	"github.com/dashqrcodes/dash-memories/internal/products"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type checkoutFixture struct {
	db       *gorm.DB
	store    *drafts.Store
	router   *gin.Engine
	enqueued []string
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Draft{}, &models.Story{}, &models.Order{}))

	f := &checkoutFixture{
		db:    db,
		store: drafts.NewStore(db),
	}

	registry := products.NewRegistry()
	require.NoError(t, registry.Register(&products.ProductTemplate{
		Name:        "acrylic-plaque",
		DisplayName: "Acrylic Photo Plaque",
		Version:     "1.0.0",
		PriceCents:  9900,
		Currency:    "usd",
		Window:      products.Window{X: 0, Y: 0, Width: 100, Height: 100},
	}))

	stripe := NewStripeClient("", true)
	enqueue := func(slug string) error {
		f.enqueued = append(f.enqueued, slug)
		return nil
	}

	router := gin.New()
	router.POST("/checkout/:slug", BeginCheckoutHandler(db, f.store, stripe, registry, "https://dashmemories.com"))
	router.POST("/checkout/:slug/verify", VerifyCheckoutHandler(db, f.store, stripe, enqueue))
	f.router = router

	return f
}

func (f *checkoutFixture) post(t *testing.T, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	resp := map[string]interface{}{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestBeginCheckout(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.store.Create(ctx, "000001", drafts.Fields{})
	require.NoError(t, err)

	w, resp := f.post(t, "/checkout/000001", gin.H{"product": "acrylic-plaque"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.DraftStatusCheckoutPending, resp["status"])
	assert.NotEmpty(t, resp["session_id"])
	assert.NotEmpty(t, resp["url"])

	draft, err := f.store.Get(ctx, "000001")
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusCheckoutPending, draft.Status)
	require.NotNil(t, draft.StripeCheckoutSessionID)
	assert.Equal(t, resp["session_id"], *draft.StripeCheckoutSessionID)

	var order models.Order
	require.NoError(t, f.db.Where("slug = ?", "000001").First(&order).Error)
	assert.Equal(t, "acrylic-plaque", order.ProductName)
	assert.Equal(t, int64(9900), order.AmountCents)
	assert.Equal(t, models.FulfillmentStatusPending, order.FulfillmentStatus)
}

func TestBeginCheckoutUnknownDraft(t *testing.T) {
	f := newCheckoutFixture(t)

	w, _ := f.post(t, "/checkout/999999", gin.H{"product": "acrylic-plaque"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBeginCheckoutUnknownProduct(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.store.Create(context.Background(), "000001", drafts.Fields{})
	require.NoError(t, err)

	w, _ := f.post(t, "/checkout/000001", gin.H{"product": "mystery-box"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBeginCheckoutMissingProduct(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.store.Create(context.Background(), "000001", drafts.Fields{})
	require.NoError(t, err)

	w, _ := f.post(t, "/checkout/000001", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBeginCheckoutReplacesAbandonedSession(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.store.Create(ctx, "000001", drafts.Fields{})
	require.NoError(t, err)

	w, first := f.post(t, "/checkout/000001", gin.H{"product": "acrylic-plaque"})
	require.Equal(t, http.StatusCreated, w.Code)

	// The buyer abandons the first session and starts over
	w, second := f.post(t, "/checkout/000001", gin.H{"product": "acrylic-plaque"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEqual(t, first["session_id"], second["session_id"])

	draft, err := f.store.Get(ctx, "000001")
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusCheckoutPending, draft.Status)
	require.NotNil(t, draft.StripeCheckoutSessionID)
	assert.Equal(t, second["session_id"], *draft.StripeCheckoutSessionID)
}

func TestVerifyCheckout(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.store.Create(ctx, "000001", drafts.Fields{})
	require.NoError(t, err)

	w, begin := f.post(t, "/checkout/000001", gin.H{"product": "acrylic-plaque"})
	require.Equal(t, http.StatusCreated, w.Code)
	sessionID := begin["session_id"].(string)

	w, resp := f.post(t, "/checkout/000001/verify", gin.H{"session_id": sessionID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.DraftStatusPaid, resp["status"])

	draft, err := f.store.Get(ctx, "000001")
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusPaid, draft.Status)

	assert.Equal(t, []string{"000001"}, f.enqueued)
}

func TestVerifyCheckoutSessionMismatch(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.store.Create(ctx, "000001", drafts.Fields{})
	require.NoError(t, err)

	w, _ := f.post(t, "/checkout/000001", gin.H{"product": "acrylic-plaque"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = f.post(t, "/checkout/000001/verify", gin.H{"session_id": "cs_test_someoneelses"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// The mismatch leaves the draft parked at checkout_pending
	draft, err := f.store.Get(ctx, "000001")
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusCheckoutPending, draft.Status)
	assert.Empty(t, f.enqueued)
}

func TestVerifyCheckoutIsIdempotent(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.store.Create(ctx, "000001", drafts.Fields{})
	require.NoError(t, err)

	w, begin := f.post(t, "/checkout/000001", gin.H{"product": "acrylic-plaque"})
	require.Equal(t, http.StatusCreated, w.Code)
	sessionID := begin["session_id"].(string)

	for i := 0; i < 3; i++ {
		w, resp := f.post(t, "/checkout/000001/verify", gin.H{"session_id": sessionID})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.DraftStatusPaid, resp["status"])
	}

	// Replays do not re-enqueue fulfillment
	assert.Equal(t, []string{"000001"}, f.enqueued)
}

func TestVerifyCheckoutBeforeBegin(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.store.Create(context.Background(), "000001", drafts.Fields{})
	require.NoError(t, err)

	// No session recorded and none supplied
	w, _ := f.post(t, "/checkout/000001/verify", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBeginCheckoutAfterPaid(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.store.Create(ctx, "000001", drafts.Fields{})
	require.NoError(t, err)
	require.NoError(t, f.store.AdvanceStatus(ctx, "000001", models.DraftStatusCheckoutPending))
	require.NoError(t, f.store.AdvanceStatus(ctx, "000001", models.DraftStatusPaid))

	w, _ := f.post(t, "/checkout/000001", gin.H{"product": "acrylic-plaque"})
	assert.Equal(t, http.StatusConflict, w.Code)
}
