package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/lexis-api/internal/aggregate"
	"github.com/phrazzld/lexis-api/internal/domain"
	"github.com/phrazzld/lexis-api/internal/store"
)

// MockAggregatedWordStore implements store.AggregatedWordStore for testing.
// Every plan it receives is recorded in Plans.
type MockAggregatedWordStore struct {
	ListFn     func(ctx context.Context, plan aggregate.Plan) (domain.WordListing, error)
	CountsFn   func(ctx context.Context, plan aggregate.Plan) (domain.WordCounts, error)
	TextbookFn func(ctx context.Context, plan aggregate.Plan) (domain.TextbookPage, error)
	GetFn      func(ctx context.Context, plan aggregate.Plan) (*domain.AggregatedWord, error)

	// Default return values
	Listing      domain.WordListing
	WordCounts   domain.WordCounts
	Page         domain.TextbookPage
	Word         *domain.AggregatedWord
	DefaultError error

	mu    sync.Mutex
	Plans []aggregate.Plan
}

var _ store.AggregatedWordStore = (*MockAggregatedWordStore)(nil)

func (m *MockAggregatedWordStore) record(plan aggregate.Plan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Plans = append(m.Plans, plan)
}

// LastPlan returns the most recent plan, or the zero plan if none was seen.
func (m *MockAggregatedWordStore) LastPlan() aggregate.Plan {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Plans) == 0 {
		return aggregate.Plan{}
	}
	return m.Plans[len(m.Plans)-1]
}

// List implements store.AggregatedWordStore.
func (m *MockAggregatedWordStore) List(ctx context.Context, plan aggregate.Plan) (domain.WordListing, error) {
	m.record(plan)
	if m.ListFn != nil {
		return m.ListFn(ctx, plan)
	}
	return m.Listing, m.DefaultError
}

// Counts implements store.AggregatedWordStore.
func (m *MockAggregatedWordStore) Counts(ctx context.Context, plan aggregate.Plan) (domain.WordCounts, error) {
	m.record(plan)
	if m.CountsFn != nil {
		return m.CountsFn(ctx, plan)
	}
	return m.WordCounts, m.DefaultError
}

// Textbook implements store.AggregatedWordStore.
func (m *MockAggregatedWordStore) Textbook(ctx context.Context, plan aggregate.Plan) (domain.TextbookPage, error) {
	m.record(plan)
	if m.TextbookFn != nil {
		return m.TextbookFn(ctx, plan)
	}
	return m.Page, m.DefaultError
}

// Get implements store.AggregatedWordStore.
func (m *MockAggregatedWordStore) Get(ctx context.Context, plan aggregate.Plan) (*domain.AggregatedWord, error) {
	m.record(plan)
	if m.GetFn != nil {
		return m.GetFn(ctx, plan)
	}
	return m.Word, m.DefaultError
}
