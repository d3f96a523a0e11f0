package memory_test

import (
	"testing"

	"github.com/kamelat/Netopeer2/pkg/adapters/memory"
	"github.com/kamelat/Netopeer2/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}
