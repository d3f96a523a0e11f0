package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// moduleSpec is the on-disk shape of a module file.
type moduleSpec struct {
	Module string     `mapstructure:"module"`
	Nodes  []nodeSpec `mapstructure:"nodes"`
}

type nodeSpec struct {
	Name        string     `mapstructure:"name"`
	Kind        string     `mapstructure:"kind"`
	Type        string     `mapstructure:"type"`
	Default     *string    `mapstructure:"default"`
	Mandatory   bool       `mapstructure:"mandatory"`
	Presence    bool       `mapstructure:"presence"`
	Key         []string   `mapstructure:"key"`
	MinElements int        `mapstructure:"min_elements"`
	MaxElements int        `mapstructure:"max_elements"`
	Children    []nodeSpec `mapstructure:"children"`
	Input       []nodeSpec `mapstructure:"input"`
	Output      []nodeSpec `mapstructure:"output"`
}

// Load reads module files (YAML, or JSON when the extension is .json) into a new Context.
func Load(paths ...string) (*Context, error) {
	ctx := NewContext()
	for _, path := range paths {
		if err := LoadFile(ctx, path); err != nil {
			return nil, err
		}
	}
	return ctx, nil
}

// LoadFile reads a single module file into ctx.
func LoadFile(ctx *Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read module file: %w", err)
	}

	var raw map[string]any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := LoadMap(ctx, raw); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadMap decodes an already parsed module document into ctx.
func LoadMap(ctx *Context, raw map[string]any) error {
	var spec moduleSpec
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &spec,
		WeaklyTypedInput: true, // defaults may be written as bare numbers or booleans
		ErrorUnused:      true,
		DecodeHook:       boolToString,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid module: %w", err)
	}
	if spec.Module == "" {
		return fmt.Errorf("invalid module: missing module name")
	}

	nodes := make([]*Node, 0, len(spec.Nodes))
	for _, ns := range spec.Nodes {
		n, err := ns.build()
		if err != nil {
			return fmt.Errorf("module %s: %w", spec.Module, err)
		}
		nodes = append(nodes, n)
	}
	if err := ctx.Add(spec.Module, nodes...); err != nil {
		return err
	}
	for _, n := range nodes {
		if err := ValidateDefaults(n); err != nil {
			return fmt.Errorf("module %s: %w", spec.Module, err)
		}
	}
	return nil
}

// boolToString keeps boolean defaults canonical ("true", not the weak "1").
func boolToString(from, to reflect.Kind, data any) (any, error) {
	if from == reflect.Bool && to == reflect.String {
		return strconv.FormatBool(data.(bool)), nil
	}
	return data, nil
}

func (ns nodeSpec) build() (*Node, error) {
	if ns.Name == "" {
		return nil, fmt.Errorf("node without name")
	}
	kind, ok := ParseKind(ns.Kind)
	if !ok {
		return nil, fmt.Errorf("node %s: unknown kind %q", ns.Name, ns.Kind)
	}
	module, name := SplitQName(ns.Name)

	n := &Node{
		Module:      module,
		Name:        name,
		Kind:        kind,
		Presence:    ns.Presence,
		Keys:        ns.Key,
		Mandatory:   ns.Mandatory,
		MinElements: ns.MinElements,
		MaxElements: ns.MaxElements,
	}

	switch kind {
	case KindLeaf, KindLeafList:
		if ns.Type == "" {
			return nil, fmt.Errorf("node %s: missing type", ns.Name)
		}
		typ, err := ParseType(ns.Type)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", ns.Name, err)
		}
		n.Type = typ
	}
	if ns.Default != nil {
		if kind != KindLeaf {
			return nil, fmt.Errorf("node %s: default is only allowed on leaves", ns.Name)
		}
		n.Default = *ns.Default
		n.HasDefault = true
	}
	if ns.Presence && kind != KindContainer {
		return nil, fmt.Errorf("node %s: presence is only allowed on containers", ns.Name)
	}

	var err error
	if n.Children, err = buildAll(ns.Children); err != nil {
		return nil, err
	}
	if n.Input, err = buildAll(ns.Input); err != nil {
		return nil, err
	}
	if n.Output, err = buildAll(ns.Output); err != nil {
		return nil, err
	}

	if kind == KindList {
		for _, k := range n.Keys {
			key := n.Child(k, false)
			if key == nil || key.Kind != KindLeaf {
				return nil, fmt.Errorf("list %s: key %q is not a child leaf", ns.Name, k)
			}
		}
	}
	return n, nil
}

func buildAll(specs []nodeSpec) ([]*Node, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make([]*Node, 0, len(specs))
	for _, s := range specs {
		n, err := s.build()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
