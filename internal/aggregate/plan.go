package aggregate

import (
	"math"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis-api/internal/domain"
	"github.com/phrazzld/lexis-api/internal/filter"
)

// Mode selects the shape of a plan's result.
type Mode int

const (
	// ModeList returns matching rows, optionally paginated with a total count.
	ModeList Mode = iota
	// ModeStats returns the three per-user counts.
	ModeStats
	// ModeTextbook returns the words of one printed page and the page index of a group.
	ModeTextbook
	// ModeSingle returns exactly one row.
	ModeSingle
)

// String returns the mode name used in logs and spans.
func (m Mode) String() string {
	switch m {
	case ModeList:
		return "list"
	case ModeStats:
		return "stats"
	case ModeTextbook:
		return "textbook"
	case ModeSingle:
		return "single"
	default:
		return "unknown"
	}
}

// Count facet names.
const (
	CountDifficult = "difficultCount"
	CountDeleted   = "deletedCount"
	CountLearning  = "learningCount"
)

// DefaultWordsPerPage is the page size used when the caller does not pass one.
const DefaultWordsPerPage = 10

// Pagination is a zero-based page window.
type Pagination struct {
	Page    int
	PerPage int
}

// MaxPage returns the largest page whose offset fits in an int for the
// given page size.
func MaxPage(perPage int) int {
	if perPage <= 0 {
		return math.MaxInt
	}
	return math.MaxInt / perPage
}

// Offset returns the number of rows skipped before the page starts.
// ListPlan guarantees Page <= MaxPage(PerPage), so it never overflows.
func (p Pagination) Offset() int {
	return p.Page * p.PerPage
}

// CountFacet counts the matched rows that also satisfy Where.
type CountFacet struct {
	Name  string
	Where filter.Expr
}

// TextbookFacets splits the matched rows of a textbook read.
// Words selects the rows of the requested page; Pages selects the rows whose
// distinct page numbers form the navigation list.
type TextbookFacets struct {
	Words filter.Expr
	Pages filter.Expr
}

// Plan is a fully parameterized read over the aggregated view.
//
// Matches are applied in order after the join. Page is only set for
// paginated list reads, Counts only for stats reads and Textbook only for
// textbook reads. WordID is set for single reads and is reported back in
// not-found errors.
type Plan struct {
	Mode     Mode
	Join     JoinSpec
	Matches  []filter.Expr
	Page     *Pagination
	Counts   []CountFacet
	Textbook *TextbookFacets
	WordID   uuid.UUID
}

// Where combines the plan's matches into one expression.
func (p Plan) Where() filter.And {
	return filter.All(p.Matches...)
}

// ListParams are the inputs of a list read.
// Group is nil when no group filter is requested; a pointer to 0 filters
// group 0. PerPage 0 disables pagination.
type ListParams struct {
	UserID  uuid.UUID
	Group   *int
	Page    int
	PerPage int
	Filter  filter.Expr
}

func groupMatch(group *int) filter.Expr {
	if group == nil {
		return nil
	}
	return filter.Eq(filter.Group, int64(*group))
}

func notDeleted() filter.Expr {
	return filter.Ne(filter.IsDeleted, true)
}

func matches(exprs ...filter.Expr) []filter.Expr {
	out := make([]filter.Expr, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// ListPlan compiles a list read. The group match comes first, then the
// caller's filter.
func ListPlan(params ListParams) (Plan, error) {
	if params.Group != nil && *params.Group < 0 {
		return Plan{}, domain.NewValidationError("group", "must not be negative", nil)
	}
	if params.Page < 0 {
		return Plan{}, domain.NewValidationError("page", "must not be negative", nil)
	}
	if params.PerPage < 0 {
		return Plan{}, domain.NewValidationError("wordsPerPage", "must not be negative", nil)
	}
	if params.Page > MaxPage(params.PerPage) {
		return Plan{}, domain.NewValidationError("page", "is too large", nil)
	}

	plan := Plan{
		Mode:    ModeList,
		Join:    BuildJoin(params.UserID),
		Matches: matches(groupMatch(params.Group), params.Filter),
	}
	if params.PerPage > 0 {
		plan.Page = &Pagination{Page: params.Page, PerPage: params.PerPage}
	}
	return plan, nil
}

// StatsPlan compiles a stats read. The three counts are evaluated
// independently against the group-filtered rows.
func StatsPlan(userID uuid.UUID, group *int) (Plan, error) {
	if group != nil && *group < 0 {
		return Plan{}, domain.NewValidationError("group", "must not be negative", nil)
	}

	return Plan{
		Mode:    ModeStats,
		Join:    BuildJoin(userID),
		Matches: matches(groupMatch(group)),
		Counts: []CountFacet{
			{
				Name:  CountDifficult,
				Where: filter.All(filter.Eq(filter.Difficulty, string(domain.DifficultyDifficult)), notDeleted()),
			},
			{
				Name:  CountDeleted,
				Where: filter.Eq(filter.IsDeleted, true),
			},
			{
				Name:  CountLearning,
				Where: filter.All(filter.Exists(filter.UserWord, true), notDeleted()),
			},
		},
	}, nil
}

// TextbookPlan compiles a textbook read for one printed page of a group.
// Soft-deleted words are hidden from both facets.
func TextbookPlan(userID uuid.UUID, group, page int) (Plan, error) {
	if group < 0 {
		return Plan{}, domain.NewValidationError("group", "must not be negative", nil)
	}
	if page < 0 {
		return Plan{}, domain.NewValidationError("page", "must not be negative", nil)
	}

	groupOnly := filter.Eq(filter.Group, int64(group))
	return Plan{
		Mode:    ModeTextbook,
		Join:    BuildJoin(userID),
		Matches: matches(notDeleted()),
		Textbook: &TextbookFacets{
			Words: filter.All(groupOnly, filter.Eq(filter.Page, int64(page))),
			Pages: groupOnly,
		},
	}, nil
}

// SinglePlan compiles the lookup of one word for one user.
func SinglePlan(wordID, userID uuid.UUID) Plan {
	return Plan{
		Mode:    ModeSingle,
		Join:    BuildJoin(userID),
		Matches: matches(filter.Eq(filter.ID, wordID)),
		WordID:  wordID,
	}
}
