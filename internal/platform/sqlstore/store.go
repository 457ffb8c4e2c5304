package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/lexis-api/internal/aggregate"
	"github.com/phrazzld/lexis-api/internal/domain"
	"github.com/phrazzld/lexis-api/internal/platform/logger"
	"github.com/phrazzld/lexis-api/internal/redact"
	"github.com/phrazzld/lexis-api/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/phrazzld/lexis-api/internal/platform/sqlstore"

// AggregatedWordStore implements store.AggregatedWordStore on database/sql.
type AggregatedWordStore struct {
	db      store.DBTX
	dialect Dialect
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Compile-time check to ensure AggregatedWordStore implements store.AggregatedWordStore.
var _ store.AggregatedWordStore = (*AggregatedWordStore)(nil)

// New creates an AggregatedWordStore. db is usually a *sql.DB; a *sql.Tx
// works too, in which case textbook reads join the caller's transaction.
// If logger is nil, the default logger is used.
func New(db store.DBTX, dialect Dialect, logger *slog.Logger) *AggregatedWordStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregatedWordStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "aggregated_word_store"), slog.String("db", dialect.Name())),
		tracer:  otel.Tracer(tracerName),
	}
}

// WithTx returns a store that runs every query inside tx.
func (s *AggregatedWordStore) WithTx(tx *sql.Tx) *AggregatedWordStore {
	return &AggregatedWordStore{
		db:      tx,
		dialect: s.dialect,
		logger:  s.logger,
		tracer:  s.tracer,
	}
}

func (s *AggregatedWordStore) start(ctx context.Context, plan aggregate.Plan, want aggregate.Mode) (context.Context, trace.Span, *slog.Logger, error) {
	ctx, span := s.tracer.Start(ctx, "aggregated_words."+want.String(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", s.dialect.Name()),
			attribute.String("lexis.read_mode", want.String()),
		),
	)
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("mode", want.String()),
		slog.String("user_id", plan.Join.UserID.String()),
	)

	if plan.Mode != want {
		err := fmt.Errorf("%w: %s plan passed to %s", store.ErrInvalidPlan, plan.Mode, want)
		return ctx, span, log, err
	}
	return ctx, span, log, nil
}

// fail records err on the span and logs it, then wraps it with the
// operation context.
func (s *AggregatedWordStore) fail(span trace.Span, log *slog.Logger, op, msg string, err error) error {
	if errors.Is(err, context.Canceled) {
		log.Debug("aggregated word read canceled", slog.String("operation", op))
	} else {
		log.Error("aggregated word read failed",
			slog.String("operation", op),
			redact.Attr(err))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return store.NewStoreError(store.EntityUserWord, op, msg, err)
}

func (s *AggregatedWordStore) query(ctx context.Context, db store.DBTX, st Statement) (*sql.Rows, error) {
	rows, err := db.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, s.dialect.MapError(err)
	}
	return rows, nil
}

// List implements store.AggregatedWordStore.List.
func (s *AggregatedWordStore) List(ctx context.Context, plan aggregate.Plan) (domain.WordListing, error) {
	ctx, span, log, err := s.start(ctx, plan, aggregate.ModeList)
	defer span.End()
	if err != nil {
		return domain.WordListing{}, s.fail(span, log, "list", "invalid plan", err)
	}

	q, err := Render(s.dialect, plan)
	if err != nil {
		return domain.WordListing{}, s.fail(span, log, "list", "failed to render query", err)
	}

	rows, err := s.query(ctx, s.db, q.Statement)
	if err != nil {
		return domain.WordListing{}, s.fail(span, log, "list", "query failed", err)
	}
	defer func() { _ = rows.Close() }()

	var listing domain.WordListing
	if plan.Page != nil {
		words, total, err := scanPage(rows)
		if err != nil {
			return domain.WordListing{}, s.fail(span, log, "list", "failed to scan rows", s.dialect.MapError(err))
		}
		listing = domain.WordListing{Words: words, TotalCount: total, Paginated: true}
	} else {
		words, err := scanWords(rows)
		if err != nil {
			return domain.WordListing{}, s.fail(span, log, "list", "failed to scan rows", s.dialect.MapError(err))
		}
		listing = domain.WordListing{Words: words, TotalCount: len(words)}
	}

	span.SetAttributes(attribute.Int("lexis.rows", len(listing.Words)))
	log.Debug("listed aggregated words",
		slog.Int("rows", len(listing.Words)),
		slog.Int("total", listing.TotalCount))
	return listing, nil
}

// Counts implements store.AggregatedWordStore.Counts.
func (s *AggregatedWordStore) Counts(ctx context.Context, plan aggregate.Plan) (domain.WordCounts, error) {
	ctx, span, log, err := s.start(ctx, plan, aggregate.ModeStats)
	defer span.End()
	if err != nil {
		return domain.WordCounts{}, s.fail(span, log, "stats", "invalid plan", err)
	}

	q, err := Render(s.dialect, plan)
	if err != nil {
		return domain.WordCounts{}, s.fail(span, log, "stats", "failed to render query", err)
	}

	values := make([]int64, len(plan.Counts))
	dest := make([]any, len(values))
	for i := range values {
		dest[i] = &values[i]
	}

	if err := s.db.QueryRowContext(ctx, q.SQL, q.Args...).Scan(dest...); err != nil {
		return domain.WordCounts{}, s.fail(span, log, "stats", "query failed", s.dialect.MapError(err))
	}

	var counts domain.WordCounts
	for i, facet := range plan.Counts {
		switch facet.Name {
		case aggregate.CountDifficult:
			counts.DifficultCount = int(values[i])
		case aggregate.CountDeleted:
			counts.DeletedCount = int(values[i])
		case aggregate.CountLearning:
			counts.LearningCount = int(values[i])
		}
	}

	log.Debug("counted aggregated words",
		slog.Int("difficult", counts.DifficultCount),
		slog.Int("deleted", counts.DeletedCount),
		slog.Int("learning", counts.LearningCount))
	return counts, nil
}

// Textbook implements store.AggregatedWordStore.Textbook.
func (s *AggregatedWordStore) Textbook(ctx context.Context, plan aggregate.Plan) (domain.TextbookPage, error) {
	ctx, span, log, err := s.start(ctx, plan, aggregate.ModeTextbook)
	defer span.End()
	if err != nil {
		return domain.TextbookPage{}, s.fail(span, log, "textbook", "invalid plan", err)
	}

	q, err := Render(s.dialect, plan)
	if err != nil {
		return domain.TextbookPage{}, s.fail(span, log, "textbook", "failed to render query", err)
	}

	var result domain.TextbookPage
	read := func(ctx context.Context, db store.DBTX) error {
		rows, err := s.query(ctx, db, q.Statement)
		if err != nil {
			return err
		}
		words, err := scanWords(rows)
		_ = rows.Close()
		if err != nil {
			return s.dialect.MapError(err)
		}

		pages, err := s.pages(ctx, db, *q.Pages)
		if err != nil {
			return err
		}

		result = domain.TextbookPage{Words: words, Pagination: pages}
		return nil
	}

	if beginner, ok := s.db.(store.TxBeginner); ok {
		err = store.RunInTransaction(ctx, beginner, s.dialect.ReadTxOptions(), func(ctx context.Context, tx *sql.Tx) error {
			return read(ctx, tx)
		})
	} else {
		err = read(ctx, s.db)
	}
	if err != nil {
		return domain.TextbookPage{}, s.fail(span, log, "textbook", "query failed", s.dialect.MapError(err))
	}

	log.Debug("read textbook page",
		slog.Int("rows", len(result.Words)),
		slog.Int("pages", len(result.Pagination)))
	return result, nil
}

func (s *AggregatedWordStore) pages(ctx context.Context, db store.DBTX, st Statement) ([]domain.TextbookPageRef, error) {
	rows, err := s.query(ctx, db, st)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	pages := []domain.TextbookPageRef{}
	for rows.Next() {
		var page int64
		if err := rows.Scan(&page); err != nil {
			return nil, s.dialect.MapError(err)
		}
		pages = append(pages, domain.TextbookPageRef{Page: int(page)})
	}
	if err := rows.Err(); err != nil {
		return nil, s.dialect.MapError(err)
	}
	return pages, nil
}

// Get implements store.AggregatedWordStore.Get.
// The result set is checked for emptiness; an empty set is a
// *store.NotFoundError carrying the word and user ids.
func (s *AggregatedWordStore) Get(ctx context.Context, plan aggregate.Plan) (*domain.AggregatedWord, error) {
	ctx, span, log, err := s.start(ctx, plan, aggregate.ModeSingle)
	defer span.End()
	if err != nil {
		return nil, s.fail(span, log, "get", "invalid plan", err)
	}
	log = log.With(slog.String("word_id", plan.WordID.String()))

	q, err := Render(s.dialect, plan)
	if err != nil {
		return nil, s.fail(span, log, "get", "failed to render query", err)
	}

	rows, err := s.query(ctx, s.db, q.Statement)
	if err != nil {
		return nil, s.fail(span, log, "get", "query failed", err)
	}
	words, err := scanWords(rows)
	_ = rows.Close()
	if err != nil {
		return nil, s.fail(span, log, "get", "failed to scan rows", s.dialect.MapError(err))
	}

	if len(words) == 0 {
		log.Debug("aggregated word not found")
		return nil, &store.NotFoundError{
			Entity: store.EntityUserWord,
			WordID: plan.WordID,
			UserID: plan.Join.UserID,
		}
	}

	return &words[0], nil
}
