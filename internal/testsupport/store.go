package testsupport

import (
	"testing"

	"steamgog/internal/catalog"
	"steamgog/internal/config"
)

// MustOpenStore opens a catalog store against the config's database path and
// registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}
