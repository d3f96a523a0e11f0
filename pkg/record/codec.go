package record

import (
	"fmt"
	"strconv"

	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/schema"
	"github.com/kamelat/Netopeer2/pkg/tree"
)

// Encode converts node id of t into a flat record.
// Operations and actions have no flat form and fail with domain.ErrConversion.
func Encode(t *tree.Tree, id tree.NodeID) (Record, error) {
	sch := t.Schema(id)
	if sch == nil {
		return Record{}, fmt.Errorf("%w: invalid node", domain.ErrConversion)
	}
	rec := Record{Path: t.Path(id), Default: t.Default(id)}

	switch sch.Kind {
	case schema.KindContainer:
		rec.Value.Kind = KindContainer
		if sch.Presence {
			rec.Value.Kind = KindPresenceContainer
		}
		return rec, nil
	case schema.KindList:
		rec.Value.Kind = KindList
		return rec, nil
	case schema.KindAnydata:
		rec.Value = Value{Kind: KindAnydata, Str: t.Value(id)}
		return rec, nil
	case schema.KindLeaf, schema.KindLeafList:
		v, err := encodeValue(sch.Type, t.Value(id))
		if err != nil {
			return Record{}, fmt.Errorf("%w: %s: %v", domain.ErrConversion, rec.Path, err)
		}
		rec.Value = v
		return rec, nil
	default:
		return Record{}, fmt.Errorf("%w: %s %s has no flat form", domain.ErrConversion, sch.Kind, rec.Path)
	}
}

func baseType(typ schema.Type) schema.Type {
	for {
		c, ok := typ.(*schema.CustomType)
		if !ok {
			return typ
		}
		typ = c.Type
	}
}

func encodeValue(typ schema.Type, s string) (Value, error) {
	if typ == nil {
		return Value{}, fmt.Errorf("untyped value")
	}
	parsed, err := typ.Parse(s)
	if err != nil {
		return Value{}, err
	}

	switch baseType(typ).(type) {
	case *schema.StringType:
		return Value{Kind: KindString, Str: s}, nil
	case *schema.EnumType:
		return Value{Kind: KindEnum, Str: s}, nil
	case *schema.BinaryType:
		return Value{Kind: KindBinary, Str: s}, nil
	case *schema.EmptyType:
		return Value{Kind: KindEmpty}, nil
	case *schema.BoolType:
		return Value{Kind: KindBool, Bool: parsed.(bool)}, nil
	case *schema.IntType:
		return Value{Kind: KindInt, Int: parsed.(int64)}, nil
	case *schema.UintType:
		return Value{Kind: KindUint, Uint: parsed.(uint64)}, nil
	case *schema.DecimalType:
		return Value{Kind: KindDecimal, Decimal: parsed.(float64)}, nil
	default:
		return Value{}, fmt.Errorf("type %s has no flat form", typ.Name())
	}
}

// Decode returns the canonical string form of the record value, ready to be
// inserted with tree.NewPath, and whether it is an opaque anydata payload.
func Decode(rec Record) (value string, anydata bool, err error) {
	value, err = rec.Value.canonical()
	if err != nil {
		return "", false, fmt.Errorf("%w: %s: %v", domain.ErrConversion, rec.Path, err)
	}
	return value, rec.Value.Kind == KindAnydata, nil
}

func (v Value) canonical() (string, error) {
	switch v.Kind {
	case KindContainer, KindPresenceContainer, KindList, KindEmpty:
		return "", nil
	case KindString, KindEnum, KindBinary, KindAnydata:
		return v.Str, nil
	case KindBool:
		return strconv.FormatBool(v.Bool), nil
	case KindInt:
		return strconv.FormatInt(v.Int, 10), nil
	case KindUint:
		return strconv.FormatUint(v.Uint, 10), nil
	case KindDecimal:
		return strconv.FormatFloat(v.Decimal, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value kind %s", v.Kind)
	}
}
