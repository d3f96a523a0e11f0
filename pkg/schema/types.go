package schema

import (
	"encoding/base64"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Type defines the contract for leaf value validation and conversion.
// Values are held in trees as canonical strings; Parse and Format convert
// between that form and the typed payload carried by flat records.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int64").
	Name() string
	// Validate checks if a typed value conforms to this type.
	Validate(value any) error
	// Parse converts a canonical string into a typed value.
	Parse(s string) (any, error)
	// Format converts a typed value into its canonical string.
	Format(value any) (string, error)
}

// --- Built-in Type Implementations ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	_, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

func (t *StringType) Parse(s string) (any, error) { return s, nil }

func (t *StringType) Format(value any) (string, error) {
	if err := t.Validate(value); err != nil {
		return "", err
	}
	return value.(string), nil
}

// IntType validates signed integer values within [Min, Max].
type IntType struct {
	Min, Max int64
}

func (t *IntType) Name() string { return "int64" }

func (t *IntType) Validate(value any) error {
	var v int64
	switch n := value.(type) {
	case int:
		v = int64(n)
	case int8:
		v = int64(n)
	case int16:
		v = int64(n)
	case int32:
		v = int64(n)
	case int64:
		v = n
	case float64:
		// Accept floats that are whole numbers (from JSON unmarshaling)
		if n != math.Trunc(n) {
			return fmt.Errorf("expected int, got float (not a whole number)")
		}
		v = int64(n)
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
	if v < t.Min || v > t.Max {
		return fmt.Errorf("value %d out of range [%d, %d]", v, t.Min, t.Max)
	}
	return nil
}

func (t *IntType) Parse(s string) (any, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid int %q", s)
	}
	if err := t.Validate(v); err != nil {
		return nil, err
	}
	return v, nil
}

func (t *IntType) Format(value any) (string, error) {
	if err := t.Validate(value); err != nil {
		return "", err
	}
	switch n := value.(type) {
	case float64:
		return strconv.FormatInt(int64(n), 10), nil
	default:
		return fmt.Sprintf("%d", n), nil
	}
}

// UintType validates unsigned integer values up to Max.
type UintType struct {
	Max uint64
}

func (t *UintType) Name() string { return "uint64" }

func (t *UintType) Validate(value any) error {
	var v uint64
	switch n := value.(type) {
	case uint:
		v = uint64(n)
	case uint8:
		v = uint64(n)
	case uint16:
		v = uint64(n)
	case uint32:
		v = uint64(n)
	case uint64:
		v = n
	case int:
		if n < 0 {
			return fmt.Errorf("expected unsigned int, got %d", n)
		}
		v = uint64(n)
	case int64:
		if n < 0 {
			return fmt.Errorf("expected unsigned int, got %d", n)
		}
		v = uint64(n)
	default:
		return fmt.Errorf("expected unsigned int, got %T", value)
	}
	if v > t.Max {
		return fmt.Errorf("value %d out of range [0, %d]", v, t.Max)
	}
	return nil
}

func (t *UintType) Parse(s string) (any, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid unsigned int %q", s)
	}
	if err := t.Validate(v); err != nil {
		return nil, err
	}
	return v, nil
}

func (t *UintType) Format(value any) (string, error) {
	if err := t.Validate(value); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", value), nil
}

// DecimalType validates decimal values.
type DecimalType struct{}

func (t *DecimalType) Name() string { return "decimal64" }

func (t *DecimalType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64:
		return nil
	default:
		return fmt.Errorf("expected decimal, got %T", value)
	}
}

func (t *DecimalType) Parse(s string) (any, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid decimal %q", s)
	}
	return v, nil
}

func (t *DecimalType) Format(value any) (string, error) {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", v), nil
	default:
		return "", fmt.Errorf("expected decimal, got %T", value)
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "boolean" }

func (t *BoolType) Validate(value any) error {
	_, ok := value.(bool)
	if !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

func (t *BoolType) Parse(s string) (any, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return nil, fmt.Errorf("invalid boolean %q", s)
	}
}

func (t *BoolType) Format(value any) (string, error) {
	if err := t.Validate(value); err != nil {
		return "", err
	}
	return strconv.FormatBool(value.(bool)), nil
}

// EmptyType is a leaf that carries no value; its presence is the information.
type EmptyType struct{}

func (t *EmptyType) Name() string { return "empty" }

func (t *EmptyType) Validate(value any) error {
	if value == nil {
		return nil
	}
	if s, ok := value.(string); ok && s == "" {
		return nil
	}
	return fmt.Errorf("expected empty, got %T", value)
}

func (t *EmptyType) Parse(s string) (any, error) {
	if s != "" {
		return nil, fmt.Errorf("empty leaf cannot hold %q", s)
	}
	return nil, nil
}

func (t *EmptyType) Format(value any) (string, error) {
	if err := t.Validate(value); err != nil {
		return "", err
	}
	return "", nil
}

// EnumType validates a string against a fixed set of names.
type EnumType struct {
	values []string
}

func (t *EnumType) Name() string { return "enumeration" }

// Values returns the allowed enum names in declaration order.
func (t *EnumType) Values() []string { return slices.Clone(t.values) }

func (t *EnumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected enum name, got %T", value)
	}
	if !slices.Contains(t.values, s) {
		return fmt.Errorf("invalid enum value %q", s)
	}
	return nil
}

func (t *EnumType) Parse(s string) (any, error) {
	if err := t.Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (t *EnumType) Format(value any) (string, error) {
	if err := t.Validate(value); err != nil {
		return "", err
	}
	return value.(string), nil
}

// BinaryType holds base64 encoded data.
type BinaryType struct{}

func (t *BinaryType) Name() string { return "binary" }

func (t *BinaryType) Validate(value any) error {
	switch v := value.(type) {
	case []byte:
		return nil
	case string:
		if _, err := base64.StdEncoding.DecodeString(v); err != nil {
			return fmt.Errorf("invalid base64: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("expected binary, got %T", value)
	}
}

func (t *BinaryType) Parse(s string) (any, error) {
	if err := t.Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (t *BinaryType) Format(value any) (string, error) {
	switch v := value.(type) {
	case []byte:
		return base64.StdEncoding.EncodeToString(v), nil
	default:
		if err := t.Validate(value); err != nil {
			return "", err
		}
		return v.(string), nil
	}
}

// CustomType applies a user-defined validation function on top of a base type.
type CustomType struct {
	Type
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	if err := t.Type.Validate(value); err != nil {
		return err
	}
	return t.validate(value)
}

func (t *CustomType) Parse(s string) (any, error) {
	v, err := t.Type.Parse(s)
	if err != nil {
		return nil, err
	}
	if err := t.validate(v); err != nil {
		return nil, err
	}
	return v, nil
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Int creates a signed integer type covering the whole int64 range.
func Int() Type { return &IntType{Min: math.MinInt64, Max: math.MaxInt64} }

// IntRange creates a signed integer type restricted to [min, max].
func IntRange(min, max int64) Type { return &IntType{Min: min, Max: max} }

// Uint creates an unsigned integer type covering the whole uint64 range.
func Uint() Type { return &UintType{Max: math.MaxUint64} }

// Decimal creates a decimal type validator.
func Decimal() Type { return &DecimalType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Empty creates an empty type.
func Empty() Type { return &EmptyType{} }

// Enum creates an enumeration type with the given names.
func Enum(values ...string) Type { return &EnumType{values: values} }

// Binary creates a binary (base64) type.
func Binary() Type { return &BinaryType{} }

// Custom creates a custom type validator with a user-defined function layered on base.
func Custom(name string, base Type, validate func(any) error) Type {
	return &CustomType{Type: base, name: name, validate: validate}
}

// ParseType converts a type name to a Type.
// Supports "string", "boolean", "empty", "binary", "decimal64", the sized integer
// names ("int8".."int64", "uint8".."uint64") and "enumeration(a|b|c)".
func ParseType(typeStr string) (Type, error) {
	typeStr = strings.TrimSpace(typeStr)

	if rest, ok := strings.CutPrefix(typeStr, "enumeration("); ok && strings.HasSuffix(rest, ")") {
		names := strings.Split(strings.TrimSuffix(rest, ")"), "|")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
			if names[i] == "" {
				return nil, fmt.Errorf("empty enum name in %s", typeStr)
			}
		}
		return Enum(names...), nil
	}

	switch typeStr {
	case "string":
		return String(), nil
	case "boolean", "bool":
		return Bool(), nil
	case "empty":
		return Empty(), nil
	case "binary":
		return Binary(), nil
	case "decimal64", "float":
		return Decimal(), nil
	case "int8":
		return IntRange(math.MinInt8, math.MaxInt8), nil
	case "int16":
		return IntRange(math.MinInt16, math.MaxInt16), nil
	case "int32":
		return IntRange(math.MinInt32, math.MaxInt32), nil
	case "int64", "int":
		return Int(), nil
	case "uint8":
		return &UintType{Max: math.MaxUint8}, nil
	case "uint16":
		return &UintType{Max: math.MaxUint16}, nil
	case "uint32":
		return &UintType{Max: math.MaxUint32}, nil
	case "uint64":
		return Uint(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}
