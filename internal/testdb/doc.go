// Package testdb provides PostgreSQL integration test helpers.
//
// Each test runs inside its own transaction, which is rolled back when the
// test completes, so tests can share one migrated database and run in
// parallel:
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t) // skips when no database is configured
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        s := postgres.NewAggregatedWordStore(tx, nil)
//	        ...
//	    })
//	}
//
// The database URL is read from LEXIS_TEST_DB_URL, LEXIS_DATABASE_URL or
// DATABASE_URL, in that order.
package testdb
