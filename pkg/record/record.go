package record

import (
	"fmt"
)

// Kind is the payload kind of a flat record, as understood by the backend.
type Kind int

const (
	KindContainer Kind = iota
	KindPresenceContainer
	KindList
	KindString
	KindBool
	KindInt
	KindUint
	KindDecimal
	KindEnum
	KindBinary
	KindEmpty
	KindAnydata
)

var kindNames = [...]string{
	KindContainer:         "container",
	KindPresenceContainer: "presence-container",
	KindList:              "list",
	KindString:            "string",
	KindBool:              "bool",
	KindInt:               "int",
	KindUint:              "uint",
	KindDecimal:           "decimal",
	KindEnum:              "enum",
	KindBinary:            "binary",
	KindEmpty:             "empty",
	KindAnydata:           "anydata",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("unknown record kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown record kind %q", text)
}

// Structural reports whether the kind carries no payload.
func (k Kind) Structural() bool {
	return k == KindContainer || k == KindPresenceContainer || k == KindList || k == KindEmpty
}

// Value is a typed payload. Only the field matching Kind is meaningful.
type Value struct {
	Kind    Kind    `json:"kind" yaml:"kind"`
	Str     string  `json:"str,omitempty" yaml:"str,omitempty"`
	Int     int64   `json:"int,omitempty" yaml:"int,omitempty"`
	Uint    uint64  `json:"uint,omitempty" yaml:"uint,omitempty"`
	Bool    bool    `json:"bool,omitempty" yaml:"bool,omitempty"`
	Decimal float64 `json:"decimal,omitempty" yaml:"decimal,omitempty"`
}

// Record is one node of a tree in flat form.
type Record struct {
	Path    string `json:"path" yaml:"path"`
	Value   Value  `json:"value" yaml:"value"`
	Default bool   `json:"default,omitempty" yaml:"default,omitempty"`
}

func (r Record) String() string {
	if r.Value.Kind.Structural() {
		return fmt.Sprintf("%s (%s)", r.Path, r.Value.Kind)
	}
	s, err := r.Value.canonical()
	if err != nil {
		s = "?"
	}
	if r.Default {
		return fmt.Sprintf("%s = %s [default]", r.Path, s)
	}
	return fmt.Sprintf("%s = %s", r.Path, s)
}
