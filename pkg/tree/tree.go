package tree

import (
	"fmt"
	"slices"

	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/schema"
)

// NodeID indexes a node inside its Tree's arena.
type NodeID int32

// NoNode is the invalid NodeID.
const NoNode NodeID = -1

type node struct {
	schema   *schema.Node
	parent   NodeID
	children []NodeID
	value    string
	dflt     bool
	freed    bool
}

// Tree is a schema-typed data tree stored in an arena.
// Parent links are plain indexes; the tree owns every node it holds.
// A Tree is not safe for concurrent mutation.
type Tree struct {
	nodes  []node
	root   NodeID
	output bool
}

// New creates a tree holding a single root node of the given schema.
// Output selects the output parameters of operations and actions when resolving children.
func New(root *schema.Node, output bool) *Tree {
	t := &Tree{root: NoNode, output: output}
	t.root = t.alloc(root, NoNode, "")
	return t
}

// Root returns the root node, or NoNode for a freed tree.
func (t *Tree) Root() NodeID { return t.root }

// Output reports whether operation children resolve against their output parameters.
func (t *Tree) Output() bool { return t.output }

// SetOutput switches between input and output resolution of operation children.
func (t *Tree) SetOutput(output bool) { t.output = output }

// Len returns the number of live nodes.
func (t *Tree) Len() int {
	n := 0
	for i := range t.nodes {
		if !t.nodes[i].freed {
			n++
		}
	}
	return n
}

// Valid reports whether id refers to a live node of t.
func (t *Tree) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes) && !t.nodes[id].freed
}

// Schema returns the schema node of id.
func (t *Tree) Schema(id NodeID) *schema.Node {
	if !t.Valid(id) {
		return nil
	}
	return t.nodes[id].schema
}

// Parent returns the parent of id, or NoNode for the root.
func (t *Tree) Parent(id NodeID) NodeID {
	if !t.Valid(id) {
		return NoNode
	}
	return t.nodes[id].parent
}

// Children returns a copy of the ordered children of id.
func (t *Tree) Children(id NodeID) []NodeID {
	if !t.Valid(id) {
		return nil
	}
	return slices.Clone(t.nodes[id].children)
}

// Value returns the canonical value of a leaf, leaf-list entry or anydata node.
func (t *Tree) Value(id NodeID) string {
	if !t.Valid(id) {
		return ""
	}
	return t.nodes[id].value
}

// Default reports the default flag of id.
func (t *Tree) Default(id NodeID) bool {
	return t.Valid(id) && t.nodes[id].dflt
}

// SetDefault sets the default flag of id. Outside of value assignment,
// Propagate is the only caller expected to change it.
func (t *Tree) SetDefault(id NodeID, dflt bool) {
	if t.Valid(id) {
		t.nodes[id].dflt = dflt
	}
}

// NewChild appends a child of the given schema under parent.
func (t *Tree) NewChild(parent NodeID, sch *schema.Node, value string) (NodeID, error) {
	if !t.Valid(parent) {
		return NoNode, fmt.Errorf("%w: invalid parent", domain.ErrResource)
	}
	psch := t.nodes[parent].schema
	if psch.Child(sch.QName(), t.output) != sch {
		return NoNode, fmt.Errorf("%w: %s is not a child of %s", domain.ErrUnknownSchema, sch.QName(), psch.QName())
	}
	return t.alloc(sch, parent, value), nil
}

func (t *Tree) alloc(sch *schema.Node, parent NodeID, value string) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{schema: sch, parent: parent, value: value})
	if parent != NoNode {
		t.nodes[parent].children = append(t.nodes[parent].children, id)
	}
	return id
}

// Descendants returns every node below id in depth-first document order, excluding id.
func (t *Tree) Descendants(id NodeID) []NodeID {
	if !t.Valid(id) {
		return nil
	}
	var out []NodeID
	var walk func(NodeID)
	walk = func(n NodeID) {
		for _, c := range t.nodes[n].children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(id)
	return out
}

// Find returns the first node, in depth-first order starting at the root, matching fn.
func (t *Tree) Find(fn func(NodeID) bool) NodeID {
	if !t.Valid(t.root) {
		return NoNode
	}
	if fn(t.root) {
		return t.root
	}
	for _, id := range t.Descendants(t.root) {
		if fn(id) {
			return id
		}
	}
	return NoNode
}

// FindKind returns the first node whose schema kind is kind.
func (t *Tree) FindKind(kind schema.Kind) NodeID {
	return t.Find(func(id NodeID) bool { return t.nodes[id].schema.Kind == kind })
}

// ChildrenOf returns the children of id that are instances of sch.
func (t *Tree) ChildrenOf(id NodeID, sch *schema.Node) []NodeID {
	if !t.Valid(id) {
		return nil
	}
	var out []NodeID
	for _, c := range t.nodes[id].children {
		if t.nodes[c].schema == sch {
			out = append(out, c)
		}
	}
	return out
}

// Dup returns a deep copy of the tree. Node IDs are preserved.
func (t *Tree) Dup() *Tree {
	dup := &Tree{
		nodes:  make([]node, len(t.nodes)),
		root:   t.root,
		output: t.output,
	}
	for i, n := range t.nodes {
		n.children = slices.Clone(n.children)
		dup.nodes[i] = n
	}
	return dup
}

// DupShape returns a new tree holding only a copy of node id, without its children.
func (t *Tree) DupShape(id NodeID, output bool) (*Tree, error) {
	if !t.Valid(id) {
		return nil, fmt.Errorf("%w: invalid node", domain.ErrResource)
	}
	src := t.nodes[id]
	dup := New(src.schema, output)
	dup.nodes[dup.root].value = src.value
	dup.nodes[dup.root].dflt = src.dflt
	return dup, nil
}

// FreeChildren discards every descendant of id.
func (t *Tree) FreeChildren(id NodeID) {
	if !t.Valid(id) {
		return
	}
	for _, d := range t.Descendants(id) {
		t.nodes[d] = node{parent: NoNode, freed: true}
	}
	t.nodes[id].children = nil
}

// Free releases every node. The tree is unusable afterwards.
func (t *Tree) Free() {
	if t == nil {
		return
	}
	t.nodes = nil
	t.root = NoNode
}

func (t *Tree) setValue(id NodeID, value string) {
	t.nodes[id].value = value
	t.nodes[id].dflt = false
}
