package schema

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kamelat/Netopeer2/pkg/domain"
)

// Context is the registry of loaded data models.
// It is read-mostly and safe for concurrent use once populated.
type Context struct {
	mu  sync.RWMutex
	top map[string]*Node // keyed by "module:name"
}

// NewContext creates an empty schema context.
func NewContext() *Context {
	return &Context{top: make(map[string]*Node)}
}

// Add registers top-level nodes of a module. Nodes without a module inherit module.
func (c *Context) Add(module string, nodes ...*Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, n := range nodes {
		link(n, nil, module)
		key := n.QName()
		if _, exists := c.top[key]; exists {
			return fmt.Errorf("duplicate top-level node %s", key)
		}
		c.top[key] = n
	}
	return nil
}

// Top returns a top-level node by "module:name".
func (c *Context) Top(qname string) (*Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.top[qname]
	return n, ok
}

// Modules returns the "module:name" of every loaded top-level node, sorted.
func (c *Context) Modules() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.top))
	for k := range c.top {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Operations returns the schema path of every operation and action, sorted.
func (c *Context) Operations() []string {
	var out []string
	var walk func(prefix string, n *Node)
	walk = func(prefix string, n *Node) {
		path := prefix + "/" + n.Name
		if n.Parent == nil || n.Parent.Module != n.Module {
			path = prefix + "/" + n.QName()
		}
		if n.IsOperation() {
			out = append(out, path)
			return
		}
		for _, ch := range n.Children {
			walk(path, ch)
		}
	}

	c.mu.RLock()
	for _, n := range c.top {
		walk("", n)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Find resolves an absolute schema path such as "/mod:top/child/leaf".
// Predicates are ignored. Children of operations resolve against the input
// statements unless output is set.
func (c *Context) Find(path string, output bool) (*Node, error) {
	steps := strings.Split(strings.Trim(StripPredicates(path), "/"), "/")
	if len(steps) == 0 || steps[0] == "" {
		return nil, fmt.Errorf("%w: empty path", domain.ErrUnknownSchema)
	}

	module, name := SplitQName(steps[0])
	if module == "" {
		return nil, fmt.Errorf("%w: %s: first step needs a module prefix", domain.ErrUnknownSchema, path)
	}
	cur, ok := c.Top(module + ":" + name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSchema, path)
	}
	for _, step := range steps[1:] {
		next := cur.Child(step, output)
		if next == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSchema, path)
		}
		cur = next
	}
	return cur, nil
}

// StripPredicates removes every [...] predicate from a data path, leaving its schema path.
func StripPredicates(path string) string {
	var b strings.Builder
	depth := 0
	var quote byte
	for i := 0; i < len(path); i++ {
		ch := path[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case depth > 0 && (ch == '\'' || ch == '"'):
			quote = ch
		case ch == '[':
			depth++
		case ch == ']':
			depth--
		case depth == 0:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
