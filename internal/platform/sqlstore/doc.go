// Package sqlstore renders aggregate plans as SQL and executes them.
//
// The aggregated view is a common table expression that left-joins the
// words table with the user_words rows of the plan's user. Overlay columns
// are exposed under overlay_* aliases, so the overlay's own id, user_id,
// word_id and version never reach the result. Everything that differs
// between databases (bind variables, JSON access, transaction options, error
// classification) is behind Dialect.
package sqlstore
