//go:build integration

// Package testdb provides helpers for tests that run against a real
// PostgreSQL database.
//
// Tests using it are built only with the integration tag and are skipped
// when SCRY_TEST_DATABASE_URL is unset:
//
//	func TestDeckStore(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        // statements here are rolled back when fn returns
//	    })
//	}
//
// GetTestDBWithT applies the embedded migrations once per connection and
// registers cleanup with t.Cleanup.
package testdb
