package postgres

import (
	"database/sql"
	"encoding/json"
	"strconv"

	"github.com/phrazzld/lexis-api/internal/platform/sqlstore"
)

// Dialect renders aggregated word queries for PostgreSQL.
// Overlay optional documents are jsonb; filter values are compared as jsonb.
type Dialect struct{}

// Name implements sqlstore.Dialect.
func (Dialect) Name() string { return "postgresql" }

// BindVar implements sqlstore.Dialect.
func (Dialect) BindVar(n int) string { return "$" + strconv.Itoa(n) }

// JSONField implements sqlstore.Dialect.
func (Dialect) JSONField(column, key string) string {
	return column + "->'" + key + "'"
}

// JSONValue implements sqlstore.Dialect.
func (Dialect) JSONValue(bindVar string) string { return bindVar + "::jsonb" }

// JSONTypeIs implements sqlstore.Dialect. jsonb orders values across types,
// so range comparisons need the check as much as equality does.
func (d Dialect) JSONTypeIs(column, key string, kind sqlstore.JSONKind) string {
	return "jsonb_typeof(" + d.JSONField(column, key) + ") = '" + string(kind) + "'"
}

// JSONArg implements sqlstore.Dialect.
func (Dialect) JSONArg(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// ReadTxOptions implements sqlstore.Dialect.
func (Dialect) ReadTxOptions() *sql.TxOptions {
	return &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead}
}

// MapError implements sqlstore.Dialect.
func (Dialect) MapError(err error) error { return MapError(err) }
