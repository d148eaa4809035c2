package streams

import (
	"testing"

	"github.com/dashqrcodes/dash-memories/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Order{}))

	return db
}

func seedOrder(t *testing.T, db *gorm.DB, slug, status string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Order{
		Slug:              slug,
		ProductName:       "acrylic-plaque",
		AmountCents:       9900,
		Currency:          "usd",
		FulfillmentStatus: status,
	}).Error)
}

func TestHandleFulfillmentAckAcknowledged(t *testing.T) {
	db := newTestDB(t)
	seedOrder(t, db, "000001", models.FulfillmentStatusSent)

	handler := HandleFulfillmentAck(db)
	require.NoError(t, handler(FulfillmentAck{Slug: "000001", Status: "acknowledged"}))

	var order models.Order
	require.NoError(t, db.Where("slug = ?", "000001").First(&order).Error)
	assert.Equal(t, models.FulfillmentStatusAcknowledged, order.FulfillmentStatus)
	assert.NotNil(t, order.AcknowledgedAt)
}

func TestHandleFulfillmentAckFailed(t *testing.T) {
	db := newTestDB(t)
	seedOrder(t, db, "000001", models.FulfillmentStatusSent)

	handler := HandleFulfillmentAck(db)
	require.NoError(t, handler(FulfillmentAck{Slug: "000001", Status: "failed", Note: "out of stock"}))

	var order models.Order
	require.NoError(t, db.Where("slug = ?", "000001").First(&order).Error)
	assert.Equal(t, models.FulfillmentStatusFailed, order.FulfillmentStatus)
	assert.Equal(t, "out of stock", order.ErrorMessage)
}

func TestHandleFulfillmentAckUnknownOrder(t *testing.T) {
	handler := HandleFulfillmentAck(newTestDB(t))
	assert.Error(t, handler(FulfillmentAck{Slug: "999999", Status: "acknowledged"}))
}

func TestHandleFulfillmentAckUnknownStatus(t *testing.T) {
	db := newTestDB(t)
	seedOrder(t, db, "000001", models.FulfillmentStatusSent)

	handler := HandleFulfillmentAck(db)
	assert.Error(t, handler(FulfillmentAck{Slug: "000001", Status: "shrug"}))
}
