package drafts

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dashqrcodes/dash-memories/internal/models"
)

// slugWidth is the zero-padded width of permanent numeric slugs
const slugWidth = 6

// maxAllocateAttempts bounds the retry loop around slug-insert conflicts.
// Two concurrent allocators can compute the same next value; the database
// unique index rejects the loser, which re-reads and tries again.
const maxAllocateAttempts = 3

// Allocator hands out permanent numeric slugs. Drafts and published
// memorials share one logical identifier space, so the allocator scans
// both namespaces and always returns a value above every numeric slug
// currently in use.
type Allocator struct {
	store *Store
}

// NewAllocator creates an allocator backed by the given store
func NewAllocator(store *Store) *Allocator {
	return &Allocator{store: store}
}

// nextSlug returns the zero-padded successor of the highest purely-numeric
// slug among those given. Random token slugs are ignored. With no numeric
// slug at all the sequence starts at "000001".
func nextSlug(slugs []string) string {
	max := 0
	for _, slug := range slugs {
		n, err := strconv.Atoi(slug)
		if err != nil || n < 0 {
			continue // non-numeric slug (random token)
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%0*d", slugWidth, max+1)
}

// NextSlug computes the next free numeric slug from the current contents
// of both namespaces. The read-then-increment is not atomic; callers that
// insert the result must be prepared for ErrSlugTaken.
func (a *Allocator) NextSlug(ctx context.Context) (string, error) {
	draftSlugs, err := a.store.Slugs(ctx)
	if err != nil {
		return "", err
	}

	storySlugs, err := a.store.StorySlugs(ctx)
	if err != nil {
		return "", err
	}

	return nextSlug(append(draftSlugs, storySlugs...)), nil
}

// AllocateDraft allocates a fresh numeric slug and creates a draft under
// it, retrying on insert conflict up to maxAllocateAttempts times. This is
// the designed recovery path for the allocator race: the unique index on
// drafts.slug decides the winner, the loser re-reads the maximum.
func (a *Allocator) AllocateDraft(ctx context.Context, fields Fields) (*models.Draft, error) {
	var lastErr error
	for attempt := 0; attempt < maxAllocateAttempts; attempt++ {
		slug, err := a.NextSlug(ctx)
		if err != nil {
			return nil, err
		}

		draft, err := a.store.Create(ctx, slug, fields)
		if errors.Is(err, ErrSlugTaken) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}

		return draft, nil
	}

	return nil, fmt.Errorf("slug allocation failed after %d attempts: %w", maxAllocateAttempts, lastErr)
}
