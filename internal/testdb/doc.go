// Package testdb provides utilities for database tests.
//
// Each test runs in its own transaction that is rolled back when the test
// completes, so tests never see each other's rows and need no cleanup:
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t) // skips when DATABASE_URL is unset
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        s := postgres.NewPostgresClassRoomStore(tx, nil)
//	        ...
//	    })
//	}
package testdb
