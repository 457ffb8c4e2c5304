package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phrazzld/lexis-api/internal/domain"
)

// ErrInvalidFilter is wrapped by every error returned from Parse.
var ErrInvalidFilter = fmt.Errorf("%w: invalid filter", domain.ErrValidation)

// Op is a comparison operator.
type Op string

// Supported operators.
const (
	OpEq     Op = "$eq"
	OpNe     Op = "$ne"
	OpGt     Op = "$gt"
	OpGte    Op = "$gte"
	OpLt     Op = "$lt"
	OpLte    Op = "$lte"
	OpIn     Op = "$in"
	OpNin    Op = "$nin"
	OpExists Op = "$exists"
)

// Kind is the value type a field accepts.
type Kind int

const (
	// KindID fields hold UUIDs.
	KindID Kind = iota
	// KindInt fields hold integers.
	KindInt
	// KindText fields hold strings.
	KindText
	// KindOverlay is the overlay itself; it can only be tested for presence.
	KindOverlay
	// KindJSON fields live inside the overlay's optional document.
	KindJSON
)

// Canonical field names of the merged record.
const (
	FieldID            = "_id"
	FieldGroup         = "group"
	FieldPage          = "page"
	FieldWord          = "word"
	FieldWordTranslate = "wordTranslate"
	FieldTranscription = "transcription"
	FieldUserWord      = "userWord"
	FieldDifficulty    = "userWord.difficulty"
	FieldOptional      = "userWord.optional"
)

// Field identifies one filterable attribute of the merged record.
// Key is only set for KindJSON fields and names the key inside userWord.optional.
type Field struct {
	Name string
	Kind Kind
	Key  string
}

// Path returns the field as a caller would write it.
func (f Field) Path() string {
	if f.Kind == KindJSON {
		return f.Name + "." + f.Key
	}
	return f.Name
}

// Fields usable by query builders.
var (
	ID            = Field{Name: FieldID, Kind: KindID}
	Group         = Field{Name: FieldGroup, Kind: KindInt}
	Page          = Field{Name: FieldPage, Kind: KindInt}
	UserWord      = Field{Name: FieldUserWord, Kind: KindOverlay}
	Difficulty    = Field{Name: FieldDifficulty, Kind: KindText}
	IsDeleted     = Optional(domain.IsDeletedKey)
	word          = Field{Name: FieldWord, Kind: KindText}
	wordTranslate = Field{Name: FieldWordTranslate, Kind: KindText}
	transcription = Field{Name: FieldTranscription, Kind: KindText}
)

var (
	fields = map[string]Field{
		"_id":                 ID,
		"id":                  ID,
		"group":               Group,
		"page":                Page,
		"word":                word,
		"wordTranslate":       wordTranslate,
		"transcription":       transcription,
		"userWord":            UserWord,
		"userWord.difficulty": Difficulty,
	}

	optionalPrefix = FieldOptional + "."
	optionalKeyRe  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,63}$`)
)

// Optional returns the field for key inside userWord.optional.
func Optional(key string) Field {
	return Field{Name: FieldOptional, Kind: KindJSON, Key: key}
}

// Lookup resolves a caller-supplied path against the field allow-list.
func Lookup(path string) (Field, error) {
	if f, ok := fields[path]; ok {
		return f, nil
	}
	if key, ok := strings.CutPrefix(path, optionalPrefix); ok {
		if !optionalKeyRe.MatchString(key) {
			return Field{}, fmt.Errorf("%w: invalid optional key %q", ErrInvalidFilter, key)
		}
		return Optional(key), nil
	}
	return Field{}, fmt.Errorf("%w: unknown field %q", ErrInvalidFilter, path)
}

// Expr is a node of a parsed filter.
type Expr interface {
	expr()
}

// And matches when every child matches. An empty And matches everything.
type And []Expr

// Or matches when at least one child matches.
type Or []Expr

// Nor matches when no child matches.
type Nor []Expr

// Cond compares a field with a value.
//
// Value is nil, bool, string, int64, float64, uuid.UUID or []any of those,
// already checked against the field's Kind.
type Cond struct {
	Field Field
	Op    Op
	Value any
}

func (And) expr()  {}
func (Or) expr()   {}
func (Nor) expr()  {}
func (Cond) expr() {}

// Eq builds an equality condition.
func Eq(f Field, v any) Cond { return Cond{Field: f, Op: OpEq, Value: v} }

// Ne builds an inequality condition. It also matches records where the
// field is absent.
func Ne(f Field, v any) Cond { return Cond{Field: f, Op: OpNe, Value: v} }

// Exists builds a presence test.
func Exists(f Field, present bool) Cond { return Cond{Field: f, Op: OpExists, Value: present} }

// All combines the non-nil expressions into a single And.
func All(exprs ...Expr) And {
	out := make(And, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}
