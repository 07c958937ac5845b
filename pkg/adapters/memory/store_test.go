package memory_test

import (
	"testing"

	"github.com/esantoro/gaphor/pkg/adapters/memory"
	"github.com/esantoro/gaphor/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSnapshotStoreContract(t, store)
}
