package flex

import (
	"strconv"
)

// ============================================================
// Decoder
// ============================================================
//
// Decoding runs in two stages. Stage 1 (parseJSON) turns text into generic
// JSON nodes and is the only place syntax errors come from. Stage 2 (infer)
// maps each node onto a Value variant:
//
//   null            -> Undefined
//   true / false    -> Integer 1 / 0
//   123             -> Integer (Float when it overflows int64)
//   1.5, 1e3        -> Float
//   "NaN" etc.      -> Float NaN / +Inf / -Inf
//   "text"          -> String
//   [...]           -> List (never Vector, never DateTime)
//   {...}           -> Dict (duplicate keys: last one wins)

// Decode parses JSON text into a Value.
func Decode(data []byte) (Value, error) {
	n, err := parseJSON(data)
	if err != nil {
		return Value{}, err
	}
	return infer(n)
}

// DecodeString is Decode for string input.
func DecodeString(s string) (Value, error) {
	return Decode([]byte(s))
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec, err := Decode(data)
	if err != nil {
		return err
	}
	*v = dec
	return nil
}

func infer(n node) (Value, error) {
	switch n.kind {
	case nodeNull:
		return Value{}, nil

	case nodeBool:
		if n.boolVal {
			return Integer(1), nil
		}
		return Integer(0), nil

	case nodeInt:
		i, err := strconv.ParseInt(n.text, 10, 64)
		if err == nil {
			return Integer(i), nil
		}
		// Beyond int64: keep the nearest double rather than failing.
		f, ferr := strconv.ParseFloat(n.text, 64)
		if ferr != nil {
			return Value{}, &ParseError{Offset: n.offset, Message: "number out of range"}
		}
		return Float(f), nil

	case nodeFloat:
		f, err := strconv.ParseFloat(n.text, 64)
		if err != nil {
			return Value{}, &ParseError{Offset: n.offset, Message: "number out of range"}
		}
		return Float(f), nil

	case nodeString:
		if f, ok := SpecialFloat(n.text); ok {
			return Float(f), nil
		}
		return String(n.text), nil

	case nodeArray:
		items := make([]Value, len(n.items))
		for i, item := range n.items {
			v, err := infer(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return list(items), nil

	case nodeObject:
		m := make(map[string]Value, len(n.members))
		for _, mem := range n.members {
			v, err := infer(mem.value)
			if err != nil {
				return Value{}, err
			}
			m[mem.key] = v
		}
		return dict(m), nil

	default:
		return Value{}, &ParseError{Offset: n.offset, Message: "unknown node kind " + n.kind.String()}
	}
}
