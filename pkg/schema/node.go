package schema

import "strings"

// Kind classifies a schema node.
type Kind int

const (
	KindContainer Kind = iota
	KindList
	KindLeaf
	KindLeafList
	KindAnydata
	KindOperation
	KindAction
)

var kindNames = map[Kind]string{
	KindContainer: "container",
	KindList:      "list",
	KindLeaf:      "leaf",
	KindLeafList:  "leaf-list",
	KindAnydata:   "anydata",
	KindOperation: "rpc",
	KindAction:    "action",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind converts a statement keyword to a Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	switch s {
	case "anyxml":
		return KindAnydata, true
	case "operation":
		return KindOperation, true
	}
	return 0, false
}

// Node is one statement of the data model.
type Node struct {
	Module string
	Name   string
	Kind   Kind

	// Presence marks a container whose existence is meaningful by itself.
	Presence bool
	// Keys lists the key leaf names of a list, in order.
	Keys []string

	// Type is the value type of a leaf or leaf-list.
	Type Type
	// Default is the canonical default value of a leaf; valid only if HasDefault.
	Default    string
	HasDefault bool
	// Mandatory marks a leaf or anydata that must exist whenever its parent exists.
	Mandatory bool

	// MinElements and MaxElements bound lists and leaf-lists; MaxElements 0 is unbounded.
	MinElements int
	MaxElements int

	// Children holds data children; Input and Output hold the parameters of an operation or action.
	Children []*Node
	Input    []*Node
	Output   []*Node

	Parent *Node
}

// IsLeafish reports whether the node holds a value rather than other nodes.
func (n *Node) IsLeafish() bool {
	return n.Kind == KindLeaf || n.Kind == KindLeafList || n.Kind == KindAnydata
}

// IsOperation reports whether the node is an operation or an action.
func (n *Node) IsOperation() bool {
	return n.Kind == KindOperation || n.Kind == KindAction
}

// IsKeyedList reports whether the node is a list identified by key leaves.
func (n *Node) IsKeyedList() bool {
	return n.Kind == KindList && len(n.Keys) > 0
}

// IsPresenceContainer reports whether the node is a presence container.
func (n *Node) IsPresenceContainer() bool {
	return n.Kind == KindContainer && n.Presence
}

// IsKey reports whether the node is a key leaf of its parent list.
func (n *Node) IsKey() bool {
	if n.Kind != KindLeaf || n.Parent == nil || n.Parent.Kind != KindList {
		return false
	}
	for _, k := range n.Parent.Keys {
		if k == n.Name {
			return true
		}
	}
	return false
}

// ChildNodes returns the children that apply to a data tree; for operations and
// actions, output selects between the output and the input parameters.
func (n *Node) ChildNodes(output bool) []*Node {
	if n.IsOperation() {
		if output {
			return n.Output
		}
		return n.Input
	}
	return n.Children
}

// Child resolves a direct child by name. The name may carry a "module:" prefix.
func (n *Node) Child(name string, output bool) *Node {
	module, local := SplitQName(name)
	for _, c := range n.ChildNodes(output) {
		if c.Name == local && (module == "" || c.Module == module) {
			return c
		}
	}
	return nil
}

// QName returns "module:name".
func (n *Node) QName() string {
	return n.Module + ":" + n.Name
}

// SplitQName splits "module:name" into its parts; module is empty when absent.
func SplitQName(s string) (module, name string) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

// link sets Parent and Module on the whole subtree rooted at n.
func link(n *Node, parent *Node, module string) {
	n.Parent = parent
	if n.Module == "" {
		n.Module = module
	}
	for _, group := range [][]*Node{n.Children, n.Input, n.Output} {
		for _, c := range group {
			link(c, n, n.Module)
		}
	}
}
