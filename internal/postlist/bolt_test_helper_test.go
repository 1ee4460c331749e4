package postlist

import (
	"path/filepath"
	"testing"

	"github.com/boltdb/bolt"
)

var testBucketName = []byte("test")

// withTestBucket opens a fresh BoltDB file under t.TempDir(), creates a
// single bucket, and runs fn inside an update transaction so the
// *bolt.Bucket it hands fn stays valid for the whole call.
func withTestBucket(t *testing.T, fn func(b bucket)) {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "test.db"), 0600, nil)
	if err != nil {
		t.Fatalf("bolt.Open: %v", err)
	}
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(testBucketName)
		if err != nil {
			return err
		}
		fn(b)
		return nil
	})
	if err != nil {
		t.Fatalf("bucket transaction: %v", err)
	}
}
