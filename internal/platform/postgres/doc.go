// Package postgres wires the aggregated word store to PostgreSQL through the
// pgx database/sql driver: connection setup, the SQL dialect and the mapping
// of pgx errors onto the store sentinels.
package postgres
