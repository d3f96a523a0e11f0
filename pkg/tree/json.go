package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/schema"
)

// DecodeOptions tunes DecodeJSON.
type DecodeOptions struct {
	// AddDefaults materialises absent default leaves with the default flag set.
	AddDefaults bool
	// Output decodes operation and action children against their output parameters.
	Output bool
}

// DecodeJSON builds a tree from a JSON document holding exactly one top-level
// member named "module:name". Nested members may omit the prefix when they
// belong to the module of their parent.
func DecodeJSON(ctx *schema.Context, data []byte, opts DecodeOptions) (*Tree, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConversion, err)
	}
	if len(top) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one top-level member, got %d", domain.ErrConversion, len(top))
	}

	for name, raw := range top {
		if module, _ := schema.SplitQName(name); module == "" {
			return nil, fmt.Errorf("%w: top-level member %q needs a module prefix", domain.ErrUnknownSchema, name)
		}
		sch, ok := ctx.Top(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSchema, name)
		}
		switch sch.Kind {
		case schema.KindContainer, schema.KindOperation:
		default:
			return nil, fmt.Errorf("%w: top-level %s %s cannot be decoded", domain.ErrConversion, sch.Kind, name)
		}

		t := New(sch, opts.Output)
		if err := t.decodeObject(t.root, raw); err != nil {
			return nil, err
		}
		if opts.AddDefaults {
			t.AddDefaults(t.root)
		}
		return t, nil
	}
	return nil, nil
}

func (t *Tree) decodeObject(id NodeID, raw json.RawMessage) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrConversion, t.Path(id), err)
	}
	sch := t.nodes[id].schema

	used := 0
	for _, c := range sch.ChildNodes(t.output) {
		val, ok := members[c.QName()]
		if !ok && c.Module == sch.Module {
			val, ok = members[c.Name]
		}
		if !ok {
			continue
		}
		used++
		if err := t.decodeMember(id, c, val); err != nil {
			return err
		}
	}
	if used != len(members) {
		for name := range members {
			if sch.Child(name, t.output) == nil {
				return fmt.Errorf("%w: %s/%s", domain.ErrUnknownSchema, t.Path(id), name)
			}
		}
		return fmt.Errorf("%w: %s: duplicate members", domain.ErrConversion, t.Path(id))
	}
	return nil
}

func (t *Tree) decodeMember(parent NodeID, sch *schema.Node, raw json.RawMessage) error {
	switch sch.Kind {
	case schema.KindLeaf:
		value, err := canonical(sch, raw)
		if err != nil {
			return fmt.Errorf("%w: %s/%s: %v", domain.ErrConversion, t.Path(parent), sch.Name, err)
		}
		t.alloc(sch, parent, value)

	case schema.KindLeafList:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("%w: %s/%s: expected an array", domain.ErrConversion, t.Path(parent), sch.Name)
		}
		for _, item := range items {
			value, err := canonical(sch, item)
			if err != nil {
				return fmt.Errorf("%w: %s/%s: %v", domain.ErrConversion, t.Path(parent), sch.Name, err)
			}
			t.alloc(sch, parent, value)
		}

	case schema.KindAnydata:
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return fmt.Errorf("%w: %s/%s: %v", domain.ErrConversion, t.Path(parent), sch.Name, err)
		}
		t.alloc(sch, parent, buf.String())

	case schema.KindList:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("%w: %s/%s: expected an array", domain.ErrConversion, t.Path(parent), sch.Name)
		}
		for _, item := range items {
			entry := t.alloc(sch, parent, "")
			if err := t.decodeEntry(entry, item); err != nil {
				return err
			}
		}

	default:
		child := t.alloc(sch, parent, "")
		return t.decodeObject(child, raw)
	}
	return nil
}

// decodeEntry decodes a list entry so that key leaves come first.
func (t *Tree) decodeEntry(entry NodeID, raw json.RawMessage) error {
	if err := t.decodeObject(entry, raw); err != nil {
		return err
	}
	sch := t.nodes[entry].schema
	kids := t.nodes[entry].children
	ordered := make([]NodeID, 0, len(kids))
	for _, k := range sch.Keys {
		kid := t.keyChild(entry, k)
		if kid == NoNode {
			return fmt.Errorf("%w: %s: missing key %s", domain.ErrConversion, t.Path(entry), k)
		}
		ordered = append(ordered, kid)
	}
	for _, c := range kids {
		if !t.nodes[c].schema.IsKey() {
			ordered = append(ordered, c)
		}
	}
	t.nodes[entry].children = ordered
	return nil
}

// canonical converts a JSON scalar into the canonical string form of the leaf type.
func canonical(sch *schema.Node, raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}

	var s string
	switch x := v.(type) {
	case string:
		s = x
	case json.Number:
		s = x.String()
	case bool:
		s = strconv.FormatBool(x)
	case nil:
		s = ""
	case []any:
		// empty leaves are encoded as [null]
		if len(x) != 1 || x[0] != nil {
			return "", fmt.Errorf("unexpected array value")
		}
		s = ""
	default:
		return "", fmt.Errorf("unexpected %T value", v)
	}

	parsed, err := sch.Type.Parse(s)
	if err != nil {
		return "", err
	}
	if err := schema.ValidateValue(sch, s); err != nil {
		return "", err
	}
	return sch.Type.Format(parsed)
}

// EncodeJSON renders the whole tree under the given with-defaults mode.
func (t *Tree) EncodeJSON(mode domain.WithDefaultsMode) ([]byte, error) {
	if !t.Valid(t.root) {
		return nil, fmt.Errorf("%w: empty tree", domain.ErrResource)
	}
	e := encoder{t: t, mode: mode}
	e.buf.WriteByte('{')
	if err := e.member(t.root, nil, []NodeID{t.root}); err != nil {
		return nil, err
	}
	e.buf.WriteByte('}')
	return e.buf.Bytes(), nil
}

type encoder struct {
	t    *Tree
	mode domain.WithDefaultsMode
	buf  bytes.Buffer
}

// skip reports whether a node is left out under the current mode.
// Explicit mode only hides defaults of configuration data; operation and
// action parameters are never configuration, so they always show.
func (e *encoder) skip(id NodeID) bool {
	n := e.t.nodes[id]
	switch e.mode {
	case domain.WithDefaultsExplicit:
		return n.dflt && !e.t.inOperation(id)
	case domain.WithDefaultsTrim:
		return n.schema.Kind == schema.KindLeaf && n.schema.HasDefault && n.value == n.schema.Default
	}
	return false
}

// inOperation reports whether id is an operation or action node or lies below one.
func (t *Tree) inOperation(id NodeID) bool {
	for cur := id; cur != NoNode; cur = t.nodes[cur].parent {
		if t.nodes[cur].schema.IsOperation() {
			return true
		}
	}
	return false
}

func (e *encoder) tagged(id NodeID) bool {
	if e.mode != domain.WithDefaultsReportAllTagged {
		return false
	}
	n := e.t.nodes[id]
	return n.dflt || (n.schema.HasDefault && n.value == n.schema.Default)
}

// visible reports whether a node renders anything under the current mode.
func (e *encoder) visible(id NodeID) bool {
	n := e.t.nodes[id]
	if e.skip(id) {
		return false
	}
	if n.schema.Kind != schema.KindContainer || n.schema.Presence {
		return true
	}
	if e.mode != domain.WithDefaultsTrim && e.mode != domain.WithDefaultsExplicit {
		return true
	}
	for _, c := range n.children {
		if e.visible(c) {
			return true
		}
	}
	return false
}

func memberName(parent, sch *schema.Node) string {
	if parent == nil || parent.Module != sch.Module {
		return sch.QName()
	}
	return sch.Name
}

// member writes one object member holding every instance in ids.
func (e *encoder) member(first NodeID, parent *schema.Node, ids []NodeID) error {
	sch := e.t.nodes[first].schema
	name, _ := json.Marshal(memberName(parent, sch))
	e.buf.Write(name)
	e.buf.WriteByte(':')

	switch sch.Kind {
	case schema.KindList, schema.KindLeafList:
		e.buf.WriteByte('[')
		for i, id := range ids {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			if err := e.value(id); err != nil {
				return err
			}
		}
		e.buf.WriteByte(']')
		return nil
	}
	if err := e.value(first); err != nil {
		return err
	}
	if e.tagged(first) && sch.Kind == schema.KindLeaf {
		tag, _ := json.Marshal("@" + memberName(parent, sch))
		e.buf.WriteByte(',')
		e.buf.Write(tag)
		e.buf.WriteString(`:{"ietf-netconf-with-defaults:default":true}`)
	}
	return nil
}

func (e *encoder) value(id NodeID) error {
	n := e.t.nodes[id]
	sch := n.schema
	switch sch.Kind {
	case schema.KindLeaf, schema.KindLeafList:
		return e.scalar(sch, n.value)
	case schema.KindAnydata:
		if json.Valid([]byte(n.value)) {
			e.buf.WriteString(n.value)
			return nil
		}
		s, _ := json.Marshal(n.value)
		e.buf.Write(s)
		return nil
	}

	e.buf.WriteByte('{')
	written := 0
	done := make(map[*schema.Node]bool)
	for _, c := range n.children {
		csch := e.t.nodes[c].schema
		if done[csch] {
			continue
		}
		done[csch] = true

		var group []NodeID
		for _, g := range e.t.ChildrenOf(id, csch) {
			if e.visible(g) {
				group = append(group, g)
			}
		}
		if len(group) == 0 {
			continue
		}
		if written > 0 {
			e.buf.WriteByte(',')
		}
		if err := e.member(group[0], sch, group); err != nil {
			return err
		}
		written++
	}
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) scalar(sch *schema.Node, value string) error {
	switch sch.Type.(type) {
	case *schema.IntType, *schema.UintType, *schema.DecimalType:
		if _, err := sch.Type.Parse(value); err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrConversion, sch.QName(), err)
		}
		e.buf.WriteString(value)
	case *schema.BoolType:
		e.buf.WriteString(value)
	case *schema.EmptyType:
		e.buf.WriteString("[null]")
	default:
		s, err := json.Marshal(value)
		if err != nil {
			return err
		}
		e.buf.Write(s)
	}
	return nil
}
