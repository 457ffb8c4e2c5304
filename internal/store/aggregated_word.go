package store

import (
	"context"

	"github.com/phrazzld/lexis-api/internal/aggregate"
	"github.com/phrazzld/lexis-api/internal/domain"
)

// EntityUserWord is the entity name reported in errors about aggregated words.
const EntityUserWord = "user word"

// AggregatedWordStore executes compiled plans against the word catalog and
// the overlays of one user. Implementations never write.
type AggregatedWordStore interface {
	// List executes a ModeList plan.
	// Without pagination TotalCount equals len(Words) and Paginated is false.
	List(ctx context.Context, plan aggregate.Plan) (domain.WordListing, error)

	// Counts executes a ModeStats plan.
	Counts(ctx context.Context, plan aggregate.Plan) (domain.WordCounts, error)

	// Textbook executes a ModeTextbook plan. Both facets read the same snapshot.
	Textbook(ctx context.Context, plan aggregate.Plan) (domain.TextbookPage, error)

	// Get executes a ModeSingle plan.
	// Returns a *NotFoundError wrapping ErrWordNotFound if no catalog word matches.
	Get(ctx context.Context, plan aggregate.Plan) (*domain.AggregatedWord, error)
}
