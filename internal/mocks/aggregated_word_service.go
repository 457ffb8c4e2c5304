package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis-api/internal/domain"
	"github.com/phrazzld/lexis-api/internal/service"
)

// MockAggregatedWordService implements service.AggregatedWordService for testing
type MockAggregatedWordService struct {
	ListFn     func(ctx context.Context, req service.ListRequest) (domain.WordListing, error)
	StatsFn    func(ctx context.Context, userID uuid.UUID, group *int) (domain.WordCounts, error)
	TextbookFn func(ctx context.Context, userID uuid.UUID, group, page int) (domain.TextbookPage, error)
	GetFn      func(ctx context.Context, wordID, userID uuid.UUID) (*domain.AggregatedWord, error)

	// Default return values
	Listing      domain.WordListing
	WordCounts   domain.WordCounts
	Page         domain.TextbookPage
	Word         *domain.AggregatedWord
	DefaultError error
}

var _ service.AggregatedWordService = (*MockAggregatedWordService)(nil)

// List implements service.AggregatedWordService.
func (m *MockAggregatedWordService) List(ctx context.Context, req service.ListRequest) (domain.WordListing, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, req)
	}
	return m.Listing, m.DefaultError
}

// Stats implements service.AggregatedWordService.
func (m *MockAggregatedWordService) Stats(ctx context.Context, userID uuid.UUID, group *int) (domain.WordCounts, error) {
	if m.StatsFn != nil {
		return m.StatsFn(ctx, userID, group)
	}
	return m.WordCounts, m.DefaultError
}

// Textbook implements service.AggregatedWordService.
func (m *MockAggregatedWordService) Textbook(ctx context.Context, userID uuid.UUID, group, page int) (domain.TextbookPage, error) {
	if m.TextbookFn != nil {
		return m.TextbookFn(ctx, userID, group, page)
	}
	return m.Page, m.DefaultError
}

// Get implements service.AggregatedWordService.
func (m *MockAggregatedWordService) Get(ctx context.Context, wordID, userID uuid.UUID) (*domain.AggregatedWord, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, wordID, userID)
	}
	return m.Word, m.DefaultError
}
