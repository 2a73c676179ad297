// Package testing provides fixtures, fakes and contract suites shared by the
// satellite test packages.
package testing

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/aristath/satellite/internal/database"
)

// NewTestDB opens a migrated SQLite database under t.TempDir. The returned
// close func may be called early to simulate an unavailable database; it is
// also registered with t.Cleanup and is safe to call more than once.
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("failed to open test database %s: %v", name, err)
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("failed to migrate test database %s: %v", name, err)
	}

	var once sync.Once
	closeDB := func() {
		once.Do(func() {
			if err := db.Close(); err != nil {
				t.Logf("failed to close test database %s: %v", name, err)
			}
		})
	}
	t.Cleanup(closeDB)
	return db, closeDB
}
