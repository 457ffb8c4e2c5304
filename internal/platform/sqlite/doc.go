// Package sqlite wires the aggregated word store to an embedded SQLite
// database (modernc.org/sqlite). It backs local development and the store
// tests; production deployments use the postgres package.
package sqlite
