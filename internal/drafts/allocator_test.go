package drafts

import (
	"context"
	"testing"

	"github.com/dashqrcodes/dash-memories/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSlug(t *testing.T) {
	tests := []struct {
		name  string
		slugs []string
		want  string
	}{
		{
			name:  "empty starts the sequence",
			slugs: nil,
			want:  "000001",
		},
		{
			name:  "increments the maximum",
			slugs: []string{"000001", "000003", "000002"},
			want:  "000004",
		},
		{
			name:  "random token slugs are ignored",
			slugs: []string{"000004", "mem-7f3a1b2c", "abc"},
			want:  "000005",
		},
		{
			name:  "only token slugs still starts at one",
			slugs: []string{"mem-7f3a1b2c", "mem-99aa00bb"},
			want:  "000001",
		},
		{
			name:  "grows past the padded width",
			slugs: []string{"999999"},
			want:  "1000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextSlug(tt.slugs))
		})
	}
}

func TestNextSlugSpansBothNamespaces(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	alloc := NewAllocator(store)
	ctx := context.Background()

	// Drafts hold 000004 plus a token slug; the highest number lives in
	// the published namespace.
	_, err := store.Create(ctx, "000004", Fields{})
	require.NoError(t, err)
	_, err = store.Create(ctx, "mem-7f3a1b2c", Fields{})
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Story{Slug: "000007", Name: "Eleanor Whitfield"}).Error)

	slug, err := alloc.NextSlug(ctx)
	require.NoError(t, err)
	assert.Equal(t, "000008", slug)
}

func TestAllocateDraft(t *testing.T) {
	store := NewStore(newTestDB(t))
	alloc := NewAllocator(store)
	ctx := context.Background()

	first, err := alloc.AllocateDraft(ctx, Fields{FullName: strPtr("Jane Doe")})
	require.NoError(t, err)
	assert.Equal(t, "000001", first.Slug)

	second, err := alloc.AllocateDraft(ctx, Fields{})
	require.NoError(t, err)
	assert.Equal(t, "000002", second.Slug)
}

func TestAllocateDraftSkipsOccupiedSlugs(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	alloc := NewAllocator(store)
	ctx := context.Background()

	_, err := store.Create(ctx, "000001", Fields{})
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Story{Slug: "000002", Name: "Taken"}).Error)

	draft, err := alloc.AllocateDraft(ctx, Fields{})
	require.NoError(t, err)
	assert.Equal(t, "000003", draft.Slug)
}
