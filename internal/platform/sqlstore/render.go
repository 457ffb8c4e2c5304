package sqlstore

import (
	"fmt"
	"strings"

	"github.com/phrazzld/lexis-api/internal/aggregate"
	"github.com/phrazzld/lexis-api/internal/filter"
	"github.com/phrazzld/lexis-api/internal/store"
)

// Columns of the aggregated view, in scan order.
var viewColumns = []string{
	"id",
	"word_group",
	"page",
	"word",
	"image",
	"audio",
	"audio_meaning",
	"audio_example",
	"text_meaning",
	"text_example",
	"transcription",
	"word_translate",
	"text_meaning_translate",
	"text_example_translate",
	"overlay_id",
	"overlay_difficulty",
	"overlay_optional",
}

const (
	overlayIDColumn       = "overlay_id"
	overlayOptionalColumn = "overlay_optional"
	orderBy               = "word_group, page, id"
)

// columnsByField maps scalar filter fields to view columns.
var columnsByField = map[string]string{
	filter.FieldID:            "id",
	filter.FieldGroup:         "word_group",
	filter.FieldPage:          "page",
	filter.FieldWord:          "word",
	filter.FieldWordTranslate: "word_translate",
	filter.FieldTranscription: "transcription",
	filter.FieldUserWord:      overlayIDColumn,
	filter.FieldDifficulty:    "overlay_difficulty",
}

// Statement is a rendered SQL statement with its arguments.
type Statement struct {
	SQL  string
	Args []any
}

// Query is a rendered plan. Pages is only set for textbook plans and reads
// the distinct page numbers.
type Query struct {
	Statement
	Pages *Statement
}

// Render turns plan into SQL for dialect.
func Render(d Dialect, plan aggregate.Plan) (Query, error) {
	switch plan.Mode {
	case aggregate.ModeList:
		st, err := renderList(d, plan)
		return Query{Statement: st}, err

	case aggregate.ModeStats:
		st, err := renderCounts(d, plan)
		return Query{Statement: st}, err

	case aggregate.ModeTextbook:
		if plan.Textbook == nil {
			return Query{}, fmt.Errorf("%w: textbook plan without facets", store.ErrInvalidPlan)
		}
		words, err := renderRows(d, plan, plan.Textbook.Words)
		if err != nil {
			return Query{}, err
		}
		pages, err := renderPages(d, plan)
		if err != nil {
			return Query{}, err
		}
		return Query{Statement: words, Pages: &pages}, nil

	case aggregate.ModeSingle:
		st, err := renderRows(d, plan, nil)
		return Query{Statement: st}, err

	default:
		return Query{}, fmt.Errorf("%w: unknown mode %d", store.ErrInvalidPlan, plan.Mode)
	}
}

type renderer struct {
	dialect Dialect
	args    []any
	sb      strings.Builder
}

func newRenderer(d Dialect) *renderer {
	return &renderer{dialect: d}
}

func (r *renderer) bind(v any) string {
	r.args = append(r.args, v)
	return r.dialect.BindVar(len(r.args))
}

func (r *renderer) statement() Statement {
	return Statement{SQL: r.sb.String(), Args: r.args}
}

// with writes the aggregated and filtered common table expressions.
func (r *renderer) with(plan aggregate.Plan) error {
	r.sb.WriteString("WITH aggregated AS (SELECT ")
	r.sb.WriteString("w.id, w.word_group, w.page, w.word, w.image, w.audio, w.audio_meaning, ")
	r.sb.WriteString("w.audio_example, w.text_meaning, w.text_example, w.transcription, ")
	r.sb.WriteString("w.word_translate, w.text_meaning_translate, w.text_example_translate, ")
	r.sb.WriteString("uw.id AS overlay_id, uw.difficulty AS overlay_difficulty, uw.optional AS overlay_optional ")
	r.sb.WriteString("FROM words w LEFT JOIN user_words uw ON uw.word_id = w.id AND uw.user_id = ")
	r.sb.WriteString(r.bind(plan.Join.UserID))
	r.sb.WriteString("), filtered AS (SELECT * FROM aggregated")

	where, err := r.expr(plan.Where())
	if err != nil {
		return err
	}
	if where != "" {
		r.sb.WriteString(" WHERE ")
		r.sb.WriteString(where)
	}
	r.sb.WriteString(")")
	return nil
}

func selectList(prefix string) string {
	cols := make([]string, len(viewColumns))
	for i, c := range viewColumns {
		cols[i] = prefix + c
	}
	return strings.Join(cols, ", ")
}

func renderList(d Dialect, plan aggregate.Plan) (Statement, error) {
	if plan.Page == nil {
		return renderRows(d, plan, nil)
	}
	if plan.Page.PerPage <= 0 || plan.Page.Page < 0 {
		return Statement{}, fmt.Errorf("%w: invalid page window", store.ErrInvalidPlan)
	}

	r := newRenderer(d)
	if err := r.with(plan); err != nil {
		return Statement{}, err
	}

	// One row per page entry, each carrying the total; an empty page still
	// yields a single row with the total and NULL columns.
	r.sb.WriteString(", page_rows AS (SELECT * FROM filtered ORDER BY ")
	r.sb.WriteString(orderBy)
	r.sb.WriteString(" LIMIT ")
	r.sb.WriteString(r.bind(int64(plan.Page.PerPage)))
	r.sb.WriteString(" OFFSET ")
	r.sb.WriteString(r.bind(int64(plan.Page.Offset())))
	r.sb.WriteString("), total AS (SELECT COUNT(*) AS total_count FROM filtered) ")
	r.sb.WriteString("SELECT total.total_count, ")
	r.sb.WriteString(selectList("page_rows."))
	r.sb.WriteString(" FROM total LEFT JOIN page_rows ON 1 = 1 ")
	r.sb.WriteString("ORDER BY page_rows.word_group, page_rows.page, page_rows.id")

	return r.statement(), nil
}

// renderRows selects the filtered rows that also satisfy facet.
func renderRows(d Dialect, plan aggregate.Plan, facet filter.Expr) (Statement, error) {
	r := newRenderer(d)
	if err := r.with(plan); err != nil {
		return Statement{}, err
	}

	r.sb.WriteString(" SELECT ")
	r.sb.WriteString(selectList(""))
	r.sb.WriteString(" FROM filtered")
	if err := r.where(facet); err != nil {
		return Statement{}, err
	}
	r.sb.WriteString(" ORDER BY ")
	r.sb.WriteString(orderBy)

	return r.statement(), nil
}

func renderPages(d Dialect, plan aggregate.Plan) (Statement, error) {
	r := newRenderer(d)
	if err := r.with(plan); err != nil {
		return Statement{}, err
	}

	r.sb.WriteString(" SELECT DISTINCT page FROM filtered")
	if err := r.where(plan.Textbook.Pages); err != nil {
		return Statement{}, err
	}
	r.sb.WriteString(" ORDER BY page")

	return r.statement(), nil
}

func renderCounts(d Dialect, plan aggregate.Plan) (Statement, error) {
	if len(plan.Counts) == 0 {
		return Statement{}, fmt.Errorf("%w: stats plan without counts", store.ErrInvalidPlan)
	}

	r := newRenderer(d)
	if err := r.with(plan); err != nil {
		return Statement{}, err
	}

	r.sb.WriteString(" SELECT ")
	for i, facet := range plan.Counts {
		cond, err := r.expr(facet.Where)
		if err != nil {
			return Statement{}, err
		}
		if cond == "" {
			cond = "1 = 1"
		}
		if i > 0 {
			r.sb.WriteString(", ")
		}
		fmt.Fprintf(&r.sb, "COALESCE(SUM(CASE WHEN %s THEN 1 ELSE 0 END), 0) AS count_%d", cond, i)
	}
	r.sb.WriteString(" FROM filtered")

	return r.statement(), nil
}

func (r *renderer) where(e filter.Expr) error {
	cond, err := r.expr(e)
	if err != nil {
		return err
	}
	if cond != "" {
		r.sb.WriteString(" WHERE ")
		r.sb.WriteString(cond)
	}
	return nil
}

// expr renders e as a boolean expression that is never NULL, so NOT keeps
// its two-valued meaning. An empty result means "no restriction".
func (r *renderer) expr(e filter.Expr) (string, error) {
	switch e := e.(type) {
	case nil:
		return "", nil
	case filter.And:
		return r.junction(e, " AND ", "")
	case filter.Or:
		if len(e) == 0 {
			return "1 = 0", nil
		}
		return r.junction(e, " OR ", "1 = 1")
	case filter.Nor:
		if len(e) == 0 {
			return "", nil
		}
		inner, err := r.junction(e, " OR ", "1 = 1")
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case filter.Cond:
		return r.cond(e)
	default:
		return "", fmt.Errorf("%w: unsupported expression %T", store.ErrInvalidPlan, e)
	}
}

// junction joins children with sep. empty replaces a child that renders
// to no restriction.
func (r *renderer) junction(children []filter.Expr, sep, empty string) (string, error) {
	parts := make([]string, 0, len(children))
	for _, child := range children {
		s, err := r.expr(child)
		if err != nil {
			return "", err
		}
		if s == "" {
			if empty == "" {
				continue
			}
			s = empty
		}
		parts = append(parts, s)
	}

	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], nil
	default:
		return "(" + strings.Join(parts, sep) + ")", nil
	}
}

func (r *renderer) column(f filter.Field) (string, error) {
	if f.Kind == filter.KindJSON {
		if f.Key == "" {
			return "", fmt.Errorf("%w: empty optional key", store.ErrInvalidPlan)
		}
		return r.dialect.JSONField(overlayOptionalColumn, f.Key), nil
	}
	col, ok := columnsByField[f.Name]
	if !ok {
		return "", fmt.Errorf("%w: unknown field %q", store.ErrInvalidPlan, f.Name)
	}
	return col, nil
}

func (r *renderer) value(f filter.Field, v any) (string, error) {
	if f.Kind != filter.KindJSON {
		return r.bind(v), nil
	}
	arg, err := r.dialect.JSONArg(v)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", store.ErrInvalidPlan, f.Path(), err)
	}
	return r.dialect.JSONValue(r.bind(arg)), nil
}

// typedValue returns the bound value of an optional-key comparison together
// with the type check the stored value must pass.
func (r *renderer) typedValue(f filter.Field, v any) (check, bound string, err error) {
	kind, err := jsonKindOf(v)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %v", store.ErrInvalidPlan, f.Path(), err)
	}
	if bound, err = r.value(f, v); err != nil {
		return "", "", err
	}
	return r.dialect.JSONTypeIs(overlayOptionalColumn, f.Key, kind), bound, nil
}

// jsonCond renders a comparison on an optional key. A stored value of
// another JSON type never satisfies $eq, $in or a range operator, and
// always satisfies $ne and $nin.
func (r *renderer) jsonCond(col string, c filter.Cond) (string, error) {
	switch c.Op {
	case filter.OpEq, filter.OpGt, filter.OpGte, filter.OpLt, filter.OpLte:
		check, v, err := r.typedValue(c.Field, c.Value)
		if err != nil {
			return "", err
		}
		return "(" + check + " AND " + col + " " + comparisons[c.Op] + " " + v + ")", nil

	case filter.OpNe:
		check, v, err := r.typedValue(c.Field, c.Value)
		if err != nil {
			return "", err
		}
		return "(" + col + " IS NULL OR NOT (" + check + ") OR " + col + " <> " + v + ")", nil

	case filter.OpIn, filter.OpNin:
		values, ok := c.Value.([]any)
		if !ok {
			return "", fmt.Errorf("%w: %s needs a list", store.ErrInvalidPlan, c.Op)
		}
		if len(values) == 0 {
			if c.Op == filter.OpIn {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		eqs := make([]string, len(values))
		for i, item := range values {
			check, v, err := r.typedValue(c.Field, item)
			if err != nil {
				return "", err
			}
			eqs[i] = "(" + check + " AND " + col + " = " + v + ")"
		}
		anyOf := "(" + strings.Join(eqs, " OR ") + ")"
		if c.Op == filter.OpIn {
			return anyOf, nil
		}
		return "(" + col + " IS NULL OR NOT " + anyOf + ")", nil

	default:
		return "", fmt.Errorf("%w: unsupported operator %q", store.ErrInvalidPlan, c.Op)
	}
}

var comparisons = map[filter.Op]string{
	filter.OpEq:  "=",
	filter.OpGt:  ">",
	filter.OpGte: ">=",
	filter.OpLt:  "<",
	filter.OpLte: "<=",
}

func (r *renderer) cond(c filter.Cond) (string, error) {
	col, err := r.column(c.Field)
	if err != nil {
		return "", err
	}

	if c.Field.Kind == filter.KindOverlay {
		switch {
		case c.Op == filter.OpExists:
		case (c.Op == filter.OpEq || c.Op == filter.OpNe) && c.Value == nil:
		default:
			return "", fmt.Errorf("%w: %s only supports presence tests", store.ErrInvalidPlan, c.Field.Path())
		}
	}

	switch c.Op {
	case filter.OpExists:
		present, ok := c.Value.(bool)
		if !ok {
			return "", fmt.Errorf("%w: $exists needs a boolean", store.ErrInvalidPlan)
		}
		if present {
			return col + " IS NOT NULL", nil
		}
		return col + " IS NULL", nil
	}

	if c.Field.Kind == filter.KindJSON && c.Value != nil {
		return r.jsonCond(col, c)
	}

	switch c.Op {
	case filter.OpNe:
		if c.Value == nil {
			return col + " IS NOT NULL", nil
		}
		v, err := r.value(c.Field, c.Value)
		if err != nil {
			return "", err
		}
		return "(" + col + " IS NULL OR " + col + " <> " + v + ")", nil

	case filter.OpEq, filter.OpGt, filter.OpGte, filter.OpLt, filter.OpLte:
		if c.Value == nil {
			if c.Op != filter.OpEq {
				return "", fmt.Errorf("%w: %s cannot compare with null", store.ErrInvalidPlan, c.Op)
			}
			return col + " IS NULL", nil
		}
		v, err := r.value(c.Field, c.Value)
		if err != nil {
			return "", err
		}
		return "(" + col + " IS NOT NULL AND " + col + " " + comparisons[c.Op] + " " + v + ")", nil

	case filter.OpIn, filter.OpNin:
		values, ok := c.Value.([]any)
		if !ok {
			return "", fmt.Errorf("%w: %s needs a list", store.ErrInvalidPlan, c.Op)
		}
		if len(values) == 0 {
			if c.Op == filter.OpIn {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		binds := make([]string, len(values))
		for i, item := range values {
			if binds[i], err = r.value(c.Field, item); err != nil {
				return "", err
			}
		}
		list := strings.Join(binds, ", ")
		if c.Op == filter.OpIn {
			return "(" + col + " IS NOT NULL AND " + col + " IN (" + list + "))", nil
		}
		return "(" + col + " IS NULL OR " + col + " NOT IN (" + list + "))", nil

	default:
		return "", fmt.Errorf("%w: unsupported operator %q", store.ErrInvalidPlan, c.Op)
	}
}
