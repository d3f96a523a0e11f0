package tree

import (
	"fmt"
	"strings"

	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/schema"
)

// PathOptions tunes NewPath.
type PathOptions struct {
	// Update overwrites the value of an existing leaf instead of failing.
	Update bool
	// Anydata marks the value as an opaque anydata payload; the target must be anydata.
	Anydata bool
}

type predicate struct {
	key   string // "." for leaf-list values
	value string
}

type step struct {
	name  string
	preds []predicate
}

// Path returns the absolute data path of id.
// A module prefix is written on the first step and wherever the module changes.
func (t *Tree) Path(id NodeID) string {
	if !t.Valid(id) {
		return ""
	}
	var chain []NodeID
	for cur := id; cur != NoNode; cur = t.nodes[cur].parent {
		chain = append(chain, cur)
	}

	var b strings.Builder
	prevModule := ""
	for i := len(chain) - 1; i >= 0; i-- {
		n := chain[i]
		sch := t.nodes[n].schema
		b.WriteByte('/')
		if sch.Module != prevModule {
			b.WriteString(sch.Module)
			b.WriteByte(':')
		}
		b.WriteString(sch.Name)
		prevModule = sch.Module

		switch sch.Kind {
		case schema.KindList:
			for _, k := range sch.Keys {
				if kid := t.keyChild(n, k); kid != NoNode {
					writePredicate(&b, k, t.nodes[kid].value)
				}
			}
		case schema.KindLeafList:
			writePredicate(&b, ".", t.nodes[n].value)
		}
	}
	return b.String()
}

func writePredicate(b *strings.Builder, key, value string) {
	quote := byte('\'')
	if strings.IndexByte(value, '\'') >= 0 {
		quote = '"'
	}
	b.WriteByte('[')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteByte(quote)
	b.WriteString(value)
	b.WriteByte(quote)
	b.WriteByte(']')
}

func (t *Tree) keyChild(entry NodeID, key string) NodeID {
	for _, c := range t.nodes[entry].children {
		if t.nodes[c].schema.Name == key && t.nodes[c].schema.IsKey() {
			return c
		}
	}
	return NoNode
}

func parsePath(path string) ([]step, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("path %q is not absolute", path)
	}
	var steps []step
	i := 1
	for i < len(path) {
		start := i
		for i < len(path) && path[i] != '/' && path[i] != '[' {
			i++
		}
		st := step{name: path[start:i]}
		if st.name == "" {
			return nil, fmt.Errorf("path %q: empty step", path)
		}
		for i < len(path) && path[i] == '[' {
			end, pred, err := parsePredicate(path, i)
			if err != nil {
				return nil, err
			}
			st.preds = append(st.preds, pred)
			i = end
		}
		if i < len(path) {
			if path[i] != '/' {
				return nil, fmt.Errorf("path %q: unexpected %q at %d", path, path[i], i)
			}
			i++
		}
		steps = append(steps, st)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("path %q has no steps", path)
	}
	return steps, nil
}

// parsePredicate reads "[key='value']" starting at path[i] == '['.
func parsePredicate(path string, i int) (int, predicate, error) {
	eq := strings.IndexByte(path[i:], '=')
	if eq < 0 {
		return 0, predicate{}, fmt.Errorf("path %q: predicate without value", path)
	}
	eq += i
	key := strings.TrimSpace(path[i+1 : eq])
	j := eq + 1
	if j >= len(path) || (path[j] != '\'' && path[j] != '"') {
		return 0, predicate{}, fmt.Errorf("path %q: unquoted predicate value", path)
	}
	quote := path[j]
	closing := strings.IndexByte(path[j+1:], quote)
	if closing < 0 {
		return 0, predicate{}, fmt.Errorf("path %q: unterminated predicate", path)
	}
	value := path[j+1 : j+1+closing]
	j += closing + 2
	if j >= len(path) || path[j] != ']' {
		return 0, predicate{}, fmt.Errorf("path %q: unterminated predicate", path)
	}
	_, local := schema.SplitQName(key)
	return j + 1, predicate{key: local, value: value}, nil
}

func (s step) pred(key string) (string, bool) {
	for _, p := range s.preds {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// NewPath inserts the node addressed by path, creating every missing
// intermediate container and list entry. List entries get their key leaves
// from the path predicates.
//
// It returns the first node it created. With Update, an existing leaf whose
// value differs is overwritten and returned. NoNode means nothing changed.
func (t *Tree) NewPath(path, value string, opts PathOptions) (NodeID, error) {
	steps, err := parsePath(path)
	if err != nil {
		return NoNode, fmt.Errorf("%w: %v", domain.ErrConversion, err)
	}
	if !t.Valid(t.root) {
		return NoNode, fmt.Errorf("%w: empty tree", domain.ErrResource)
	}

	rootSch := t.nodes[t.root].schema
	module, name := schema.SplitQName(steps[0].name)
	if name != rootSch.Name || (module != "" && module != rootSch.Module) {
		return NoNode, fmt.Errorf("%w: %s is outside of %s", domain.ErrUnknownSchema, path, rootSch.QName())
	}

	first := NoNode
	cur := t.root
	if rootSch.Kind == schema.KindList {
		if err := t.checkKeys(cur, steps[0]); err != nil {
			return NoNode, err
		}
	}

	for i, st := range steps[1:] {
		last := i == len(steps)-2
		sch := t.nodes[cur].schema.Child(st.name, t.output)
		if sch == nil {
			return NoNode, fmt.Errorf("%w: %s (at %s)", domain.ErrUnknownSchema, path, st.name)
		}

		switch sch.Kind {
		case schema.KindLeaf, schema.KindAnydata:
			if !last {
				return NoNode, fmt.Errorf("%w: %s: %s has no children", domain.ErrConversion, path, st.name)
			}
			if opts.Anydata && sch.Kind != schema.KindAnydata {
				return NoNode, fmt.Errorf("%w: %s: anydata value for a %s", domain.ErrConversion, path, sch.Kind)
			}
			if err := schema.ValidateValue(sch, value); err != nil {
				return NoNode, fmt.Errorf("%w: %s: %v", domain.ErrConversion, path, err)
			}
			existing := t.ChildrenOf(cur, sch)
			if len(existing) > 0 {
				id := existing[0]
				if !opts.Update {
					return NoNode, fmt.Errorf("%w: %s already exists", domain.ErrConversion, path)
				}
				if t.nodes[id].value == value {
					return pick(first, NoNode), nil
				}
				t.setValue(id, value)
				return pick(first, id), nil
			}
			id := t.alloc(sch, cur, value)
			return pick(first, id), nil

		case schema.KindLeafList:
			if !last {
				return NoNode, fmt.Errorf("%w: %s: %s has no children", domain.ErrConversion, path, st.name)
			}
			v := value
			if p, ok := st.pred("."); ok {
				v = p
			}
			if err := schema.ValidateValue(sch, v); err != nil {
				return NoNode, fmt.Errorf("%w: %s: %v", domain.ErrConversion, path, err)
			}
			for _, c := range t.ChildrenOf(cur, sch) {
				if t.nodes[c].value == v {
					return pick(first, NoNode), nil
				}
			}
			return pick(first, t.alloc(sch, cur, v)), nil

		case schema.KindList:
			entry, created, err := t.listEntry(cur, sch, st)
			if err != nil {
				return NoNode, fmt.Errorf("%s: %w", path, err)
			}
			if created {
				first = pick(first, entry)
			}
			cur = entry

		default:
			// containers, actions and nested operations
			existing := t.ChildrenOf(cur, sch)
			if len(existing) > 0 {
				cur = existing[0]
				continue
			}
			cur = t.alloc(sch, cur, "")
			first = pick(first, cur)
		}
	}
	return first, nil
}

func pick(first, id NodeID) NodeID {
	if first != NoNode {
		return first
	}
	return id
}

func (t *Tree) listEntry(parent NodeID, sch *schema.Node, st step) (NodeID, bool, error) {
	if !sch.IsKeyedList() {
		// keyless lists always get a new instance
		return t.alloc(sch, parent, ""), true, nil
	}
	values := make([]string, len(sch.Keys))
	for i, k := range sch.Keys {
		v, ok := st.pred(k)
		if !ok {
			return NoNode, false, fmt.Errorf("%w: list %s needs key %s", domain.ErrConversion, sch.Name, k)
		}
		if err := schema.ValidateValue(sch.Child(k, false), v); err != nil {
			return NoNode, false, fmt.Errorf("%w: key %s: %v", domain.ErrConversion, k, err)
		}
		values[i] = v
	}

	for _, e := range t.ChildrenOf(parent, sch) {
		match := true
		for i, k := range sch.Keys {
			kid := t.keyChild(e, k)
			if kid == NoNode || t.nodes[kid].value != values[i] {
				match = false
				break
			}
		}
		if match {
			return e, false, nil
		}
	}

	entry := t.alloc(sch, parent, "")
	for i, k := range sch.Keys {
		t.alloc(sch.Child(k, false), entry, values[i])
	}
	return entry, true, nil
}

func (t *Tree) checkKeys(entry NodeID, st step) error {
	sch := t.nodes[entry].schema
	for _, k := range sch.Keys {
		v, ok := st.pred(k)
		if !ok {
			continue
		}
		kid := t.keyChild(entry, k)
		if kid == NoNode || t.nodes[kid].value != v {
			return fmt.Errorf("%w: key %s=%q does not match the tree root", domain.ErrUnknownSchema, k, v)
		}
	}
	return nil
}
