package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kamelat/Netopeer2/pkg/schema"
	"github.com/stretchr/testify/require"
)

// ExampleModule declares the operations used across the package tests.
const ExampleModule = `
module: example
nodes:
  - name: compute
    kind: rpc
    input:
      - {name: x, kind: leaf, type: string, default: "0"}
      - {name: y, kind: leaf, type: string, mandatory: true}
      - name: opts
        kind: container
        children:
          - {name: verbose, kind: leaf, type: boolean, default: false}
    output:
      - {name: y, kind: leaf, type: int32, mandatory: true}
  - name: ping
    kind: rpc
  - name: report
    kind: rpc
    output:
      - {name: summary, kind: leaf, type: string}
      - name: stats
        kind: container
        children:
          - {name: count, kind: leaf, type: uint32, default: 0}
          - {name: unit, kind: leaf, type: string, default: pkts}
      - name: marker
        kind: container
        presence: true
        children:
          - {name: level, kind: leaf, type: uint8, default: 1}
      - name: entry
        kind: list
        key: [id]
        max_elements: 3
        children:
          - {name: id, kind: leaf, type: uint16}
          - {name: note, kind: leaf, type: string, default: none}
      - {name: tag, kind: leaf-list, type: string}
      - {name: raw, kind: anydata}
`

// InterfacesModule declares a keyed list carrying an action.
const InterfacesModule = `
module: ietf-interfaces
nodes:
  - name: interfaces
    kind: container
    children:
      - name: interface
        kind: list
        key: [name]
        children:
          - {name: name, kind: leaf, type: string}
          - {name: enabled, kind: leaf, type: boolean, default: true}
          - name: reset
            kind: action
            input:
              - {name: delay, kind: leaf, type: uint32, default: 0}
            output:
              - {name: status, kind: leaf, type: string, default: done}
              - {name: code, kind: leaf, type: int32}
`

// WriteSchema writes the example modules to a temporary directory and
// returns their paths.
func WriteSchema(t *testing.T) []string {
	t.Helper()

	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "example.yaml"),
		filepath.Join(dir, "ietf-interfaces.yaml"),
	}
	require.NoError(t, os.WriteFile(paths[0], []byte(ExampleModule), 0o644), "Failed to write example module")
	require.NoError(t, os.WriteFile(paths[1], []byte(InterfacesModule), 0o644), "Failed to write interfaces module")
	return paths
}

// SetupSchema writes the example modules and loads them.
// It fails the test immediately on error.
func SetupSchema(t *testing.T) *schema.Context {
	t.Helper()

	ctx, err := schema.Load(WriteSchema(t)...)
	require.NoError(t, err, "Failed to load example modules")
	return ctx
}
