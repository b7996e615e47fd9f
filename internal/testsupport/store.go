package testsupport

import (
	"testing"

	"awstail/internal/checkpoint"
	"awstail/internal/config"
)

// MustOpenCheckpoints opens the checkpoint store of cfg and registers cleanup.
func MustOpenCheckpoints(t testing.TB, cfg *config.Config) *checkpoint.Store {
	t.Helper()

	store, err := checkpoint.Open(cfg.Checkpoint.DatabasePath())
	if err != nil {
		t.Fatalf("checkpoint.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
