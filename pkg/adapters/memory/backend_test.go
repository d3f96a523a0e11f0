package memory_test

import (
	"testing"

	"github.com/kamelat/Netopeer2/pkg/adapters/memory"
	"github.com/kamelat/Netopeer2/pkg/ports/tests"
)

func TestMemoryBackend_Contract(t *testing.T) {
	backend := memory.NewBackend()
	tests.BackendContractTest(t, backend, backend)
}
