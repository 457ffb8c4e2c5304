package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis-api/internal/aggregate"
	"github.com/phrazzld/lexis-api/internal/domain"
	"github.com/phrazzld/lexis-api/internal/filter"
	"github.com/phrazzld/lexis-api/internal/platform/logger"
	"github.com/phrazzld/lexis-api/internal/redact"
	"github.com/phrazzld/lexis-api/internal/store"
)

// AggregatedWordServiceError is a custom error type for aggregated word service errors.
type AggregatedWordServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for AggregatedWordServiceError.
func (e *AggregatedWordServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("aggregated word service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("aggregated word service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *AggregatedWordServiceError) Unwrap() error {
	return e.Err
}

// NewAggregatedWordServiceError creates a new AggregatedWordServiceError.
func NewAggregatedWordServiceError(operation, message string, err error) *AggregatedWordServiceError {
	return &AggregatedWordServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// ListRequest describes a list read.
type ListRequest struct {
	UserID uuid.UUID
	// Group restricts the read to one group when set. Group 0 is a real group.
	Group *int
	Page  int
	// PerPage of zero returns every matching word without pagination.
	PerPage int
	// Filter is a raw JSON filter document; empty means no filter.
	Filter string
}

// AggregatedWordService reads catalog words merged with one user's overlays.
type AggregatedWordService interface {
	// List returns the user's aggregated words, paginated when PerPage > 0.
	List(ctx context.Context, req ListRequest) (domain.WordListing, error)

	// Stats counts difficult, deleted and learning words for the user.
	Stats(ctx context.Context, userID uuid.UUID, group *int) (domain.WordCounts, error)

	// Textbook returns the non-deleted words of one printed page and the
	// pages available in the group.
	Textbook(ctx context.Context, userID uuid.UUID, group, page int) (domain.TextbookPage, error)

	// Get returns one word merged with the user's overlay, or an error
	// matching store.ErrNotFound.
	Get(ctx context.Context, wordID, userID uuid.UUID) (*domain.AggregatedWord, error)
}

type aggregatedWordServiceImpl struct {
	store  store.AggregatedWordStore
	logger *slog.Logger
}

var _ AggregatedWordService = (*aggregatedWordServiceImpl)(nil)

// NewAggregatedWordService creates a new AggregatedWordService.
// It returns an error if the store is nil.
func NewAggregatedWordService(
	wordStore store.AggregatedWordStore,
	logger *slog.Logger,
) (AggregatedWordService, error) {
	if wordStore == nil {
		return nil, domain.NewValidationError("wordStore", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &aggregatedWordServiceImpl{
		store:  wordStore,
		logger: logger.With(slog.String("component", "aggregated_word_service")),
	}, nil
}

// List implements AggregatedWordService.List.
func (s *aggregatedWordServiceImpl) List(ctx context.Context, req ListRequest) (domain.WordListing, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("user_id", req.UserID.String()))

	var expr filter.Expr
	if strings.TrimSpace(req.Filter) != "" {
		parsed, err := filter.Parse([]byte(req.Filter))
		if err != nil {
			log.Debug("rejected filter", slog.String("error", err.Error()))
			return domain.WordListing{}, err
		}
		expr = parsed
	}

	plan, err := aggregate.ListPlan(aggregate.ListParams{
		UserID:  req.UserID,
		Group:   req.Group,
		Page:    req.Page,
		PerPage: req.PerPage,
		Filter:  expr,
	})
	if err != nil {
		return domain.WordListing{}, err
	}

	listing, err := s.store.List(ctx, plan)
	if err != nil {
		return domain.WordListing{}, s.fail(log, "list", "failed to list aggregated words", err)
	}

	log.Debug("listed aggregated words",
		slog.Int("count", len(listing.Words)),
		slog.Int("total", listing.TotalCount))
	return listing, nil
}

// Stats implements AggregatedWordService.Stats.
func (s *aggregatedWordServiceImpl) Stats(ctx context.Context, userID uuid.UUID, group *int) (domain.WordCounts, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("user_id", userID.String()))

	plan, err := aggregate.StatsPlan(userID, group)
	if err != nil {
		return domain.WordCounts{}, err
	}

	counts, err := s.store.Counts(ctx, plan)
	if err != nil {
		return domain.WordCounts{}, s.fail(log, "stats", "failed to count aggregated words", err)
	}
	return counts, nil
}

// Textbook implements AggregatedWordService.Textbook.
func (s *aggregatedWordServiceImpl) Textbook(ctx context.Context, userID uuid.UUID, group, page int) (domain.TextbookPage, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.Int("group", group),
		slog.Int("page", page))

	plan, err := aggregate.TextbookPlan(userID, group, page)
	if err != nil {
		return domain.TextbookPage{}, err
	}

	result, err := s.store.Textbook(ctx, plan)
	if err != nil {
		return domain.TextbookPage{}, s.fail(log, "textbook", "failed to read textbook page", err)
	}
	return result, nil
}

// Get implements AggregatedWordService.Get.
func (s *aggregatedWordServiceImpl) Get(ctx context.Context, wordID, userID uuid.UUID) (*domain.AggregatedWord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("word_id", wordID.String()))

	word, err := s.store.Get(ctx, aggregate.SinglePlan(wordID, userID))
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("aggregated word not found")
			return nil, NewAggregatedWordServiceError("get", "word not found", err)
		}
		return nil, s.fail(log, "get", "failed to read aggregated word", err)
	}
	return word, nil
}

func (s *aggregatedWordServiceImpl) fail(log *slog.Logger, op, msg string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		log.Debug("aggregated word read canceled", slog.String("operation", op))
	case store.IsUnavailableError(err):
		log.Warn("store unavailable", slog.String("operation", op), redact.Attr(err))
	default:
		log.Error(msg, slog.String("operation", op), redact.Attr(err))
	}
	return NewAggregatedWordServiceError(op, msg, err)
}
