// Package store defines the persistence contracts of the service: the
// aggregated word reader, the DBTX abstraction shared by the SQL
// implementations, transaction helpers and the error sentinels every
// implementation maps its driver errors onto.
package store
