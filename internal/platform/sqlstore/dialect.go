package sqlstore

import (
	"database/sql"
	"fmt"
)

// JSONKind is the JSON type of a filter value compared with an optional key.
type JSONKind string

const (
	JSONBoolean JSONKind = "boolean"
	JSONNumber  JSONKind = "number"
	JSONString  JSONKind = "string"
)

// jsonKindOf returns the JSON type of a parsed filter value.
func jsonKindOf(v any) (JSONKind, error) {
	switch v.(type) {
	case bool:
		return JSONBoolean, nil
	case int64, float64:
		return JSONNumber, nil
	case string:
		return JSONString, nil
	default:
		return "", fmt.Errorf("unsupported JSON value %T", v)
	}
}

// Dialect describes the SQL differences between supported databases.
type Dialect interface {
	// Name identifies the database in logs and spans, e.g. "postgresql".
	Name() string

	// BindVar returns the placeholder for the n-th argument, starting at 1.
	// Arguments are always bound in the order they appear in the statement.
	BindVar(n int) string

	// JSONField returns an expression reading key from the JSON object in
	// column. It evaluates to NULL when the key or the object is absent.
	// key has already been checked against the filter key pattern.
	JSONField(column, key string) string

	// JSONValue wraps a bind variable so it compares with JSONField.
	JSONValue(bindVar string) string

	// JSONArg converts a filter value into the argument bound by JSONValue.
	JSONArg(v any) (any, error)

	// JSONTypeIs returns a predicate that holds when key in column is
	// present and has the JSON type kind. Comparisons on optional keys only
	// match values of the same type, so true never equals 1.
	JSONTypeIs(column, key string, kind JSONKind) string

	// ReadTxOptions returns the options of read-only snapshot transactions.
	ReadTxOptions() *sql.TxOptions

	// MapError translates a driver error into the store error sentinels.
	MapError(err error) error
}
