package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/phrazzld/lexis-api/internal/platform/sqlstore"
)

// Dialect renders aggregated word queries for SQLite.
// Optional documents are TEXT read with json_extract, which yields SQL
// values: JSON true and false become 1 and 0. JSONTypeIs restores the
// distinction in comparisons.
type Dialect struct{}

// Name implements sqlstore.Dialect.
func (Dialect) Name() string { return "sqlite" }

// BindVar implements sqlstore.Dialect.
func (Dialect) BindVar(int) string { return "?" }

// JSONField implements sqlstore.Dialect.
func (Dialect) JSONField(column, key string) string {
	return "json_extract(" + column + ", '$." + key + "')"
}

// JSONValue implements sqlstore.Dialect.
func (Dialect) JSONValue(bindVar string) string { return bindVar }

// JSONTypeIs implements sqlstore.Dialect. json_extract loses the
// difference between true and 1, json_type keeps it.
func (Dialect) JSONTypeIs(column, key string, kind sqlstore.JSONKind) string {
	typ := "json_type(" + column + ", '$." + key + "')"
	switch kind {
	case sqlstore.JSONBoolean:
		return typ + " IN ('true', 'false')"
	case sqlstore.JSONNumber:
		return typ + " IN ('integer', 'real')"
	default:
		return typ + " = 'text'"
	}
}

// JSONArg implements sqlstore.Dialect.
func (Dialect) JSONArg(v any) (any, error) {
	switch v := v.(type) {
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case string, int64, float64:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported JSON value %T", v)
	}
}

// ReadTxOptions implements sqlstore.Dialect. SQLite transactions are
// serializable already, so the driver defaults are used.
func (Dialect) ReadTxOptions() *sql.TxOptions { return nil }

// MapError implements sqlstore.Dialect.
func (Dialect) MapError(err error) error { return MapError(err) }
