package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanAdvance(t *testing.T) {
	assert.True(t, CanAdvance(DraftStatusDraft, DraftStatusCheckoutPending))
	assert.True(t, CanAdvance(DraftStatusCheckoutPending, DraftStatusPaid))

	// No skipping, no moving backward, no leaving paid
	assert.False(t, CanAdvance(DraftStatusDraft, DraftStatusPaid))
	assert.False(t, CanAdvance(DraftStatusCheckoutPending, DraftStatusDraft))
	assert.False(t, CanAdvance(DraftStatusPaid, DraftStatusDraft))
	assert.False(t, CanAdvance(DraftStatusPaid, DraftStatusCheckoutPending))

	assert.False(t, CanAdvance("bogus", DraftStatusPaid))
}

func TestNextStatus(t *testing.T) {
	assert.Equal(t, DraftStatusCheckoutPending, NextStatus(DraftStatusDraft))
	assert.Equal(t, DraftStatusPaid, NextStatus(DraftStatusCheckoutPending))
	assert.Equal(t, "", NextStatus(DraftStatusPaid))
	assert.Equal(t, "", NextStatus("bogus"))
}
