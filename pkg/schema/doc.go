// Package schema models the data definitions that request and reply trees are
// checked against.
//
// A Context holds the top-level nodes of every loaded module. Nodes describe
// containers, lists, leaves, leaf-lists, anydata, operations and actions,
// with the value Type, default and cardinality of each statement.
//
// Modules are read from YAML (or JSON) files:
//
//	module: example
//	nodes:
//	  - name: compute
//	    kind: rpc
//	    input:
//	      - {name: x, kind: leaf, type: string, default: "0"}
//	    output:
//	      - {name: y, kind: leaf, type: int32, mandatory: true}
//
//	ctx, err := schema.Load("example.yaml")
//
// Types can also be built programmatically, including custom validators:
//
//	port := schema.Custom("port", schema.Uint(), func(v any) error {
//	    if v.(uint64) > 65535 {
//	        return fmt.Errorf("out of range")
//	    }
//	    return nil
//	})
package schema
