package flex

import (
	"fmt"
	"math"
	"time"
)

// ============================================================
// Host Bridge
// ============================================================
//
// Converts between native Go values and Value. This is the Go side of the
// host boundary: whatever builds values for the codec goes through FromAny,
// and ToAny hands decoded values back.

// FromAny converts a native Go value to a Value.
//
//	nil                          -> Undefined
//	bool                         -> Integer 1 / 0
//	int*, uint* (<= MaxInt64)    -> Integer
//	float32, float64             -> Float
//	string                       -> String
//	[]float64, []float32         -> Vector
//	[]any, []string, []Value     -> List
//	map[string]any, map[string]Value -> Dict
//	time.Time                    -> DateTime (zoned)
//	DateTime, Image, Value       -> as is
func FromAny(x any) (Value, error) {
	return fromAny(x, "$")
}

func fromAny(x any, path string) (Value, error) {
	switch val := x.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return val, nil
	case bool:
		if val {
			return Integer(1), nil
		}
		return Integer(0), nil
	case int:
		return Integer(int64(val)), nil
	case int8:
		return Integer(int64(val)), nil
	case int16:
		return Integer(int64(val)), nil
	case int32:
		return Integer(int64(val)), nil
	case int64:
		return Integer(val), nil
	case uint:
		return fromUint(uint64(val), path)
	case uint8:
		return Integer(int64(val)), nil
	case uint16:
		return Integer(int64(val)), nil
	case uint32:
		return Integer(int64(val)), nil
	case uint64:
		return fromUint(val, path)
	case float32:
		return Float(float64(val)), nil
	case float64:
		return Float(val), nil
	case string:
		return String(val), nil
	case []float64:
		return Vector(val...), nil
	case []float32:
		vec := make([]float64, len(val))
		for i, f := range val {
			vec[i] = float64(f)
		}
		return vector(vec), nil
	case []string:
		items := make([]Value, len(val))
		for i, s := range val {
			items[i] = String(s)
		}
		return list(items), nil
	case []Value:
		return List(val...), nil
	case []any:
		items := make([]Value, len(val))
		for i, elem := range val {
			v, err := fromAny(elem, indexPath(path, i))
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return list(items), nil
	case map[string]Value:
		return Dict(val), nil
	case map[string]any:
		m := make(map[string]Value, len(val))
		for k, elem := range val {
			v, err := fromAny(elem, keyPath(path, k))
			if err != nil {
				return Value{}, err
			}
			m[k] = v
		}
		return dict(m), nil
	case time.Time:
		dt, err := DateTimeFromTime(val)
		if err != nil {
			return Value{}, &EncodingError{Path: path, Type: TypeDateTime, Err: err}
		}
		return DateTimeValue(dt), nil
	case DateTime:
		return DateTimeValue(val), nil
	case Image:
		return ImageValue(val), nil
	default:
		return Value{}, &EncodingError{Path: path, Type: TypeUndefined,
			Err: fmt.Errorf("%w: Go type %T", ErrUnsupportedType, x)}
	}
}

func fromUint(u uint64, path string) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, &EncodingError{Path: path, Type: TypeInteger,
			Err: fmt.Errorf("%w: %d", ErrIntegerRange, u)}
	}
	return Integer(int64(u)), nil
}

// ToAny converts v to native Go values.
//
//	Undefined -> nil, Integer -> int64, Float -> float64, String -> string,
//	Vector -> []float64, List -> []any, Dict -> map[string]any,
//	DateTime -> time.Time, Image -> Image
func ToAny(v Value) any {
	switch v.typ {
	case TypeUndefined:
		return nil
	case TypeInteger:
		return v.intVal
	case TypeFloat:
		return v.floatVal
	case TypeString:
		return v.strVal
	case TypeVector:
		out := make([]float64, len(v.vecVal))
		copy(out, v.vecVal)
		return out
	case TypeList:
		out := make([]any, len(v.listVal))
		for i, elem := range v.listVal {
			out[i] = ToAny(elem)
		}
		return out
	case TypeDict:
		out := make(map[string]any, len(v.dictVal))
		for k, elem := range v.dictVal {
			out[k] = ToAny(elem)
		}
		return out
	case TypeDateTime:
		return v.dtVal.Time()
	case TypeImage:
		img, _ := v.AsImage()
		return img
	default:
		return nil
	}
}
