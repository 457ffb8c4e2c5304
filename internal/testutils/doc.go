// Package testutils provides testing utilities for the lexis API.
//
// Store tests run against a migrated SQLite database:
//
//	db := testutils.NewSQLiteDB(t)
//	word := testutils.MustInsertWord(t, db, testutils.WithWordGroup(0), testutils.WithWordPage(1))
//	testutils.MustInsertUserWord(t, db, userID, word.ID, "difficult", `{"isDeleted":false}`)
//
// HTTP tests use CreateTestServer, DoGet with a header from MustAuthHeader,
// and AssertErrorResponse.
package testutils
