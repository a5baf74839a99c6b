package flex

// ============================================================
// Typed entry points
// ============================================================
//
// JSON text cannot tell a Vector from a List of floats, or a DateTime from a
// List of three integers. The generic decoder always answers List. Callers
// that know the expected type narrow explicitly with the helpers below.

// Coerce narrows v to type t.
//
//   - any type to itself: identity
//   - Integer to Float: numeric conversion
//   - List of Integer/Float to Vector
//   - 3-element List to DateTime (see DateTimeFromList)
//
// Anything else is a *TypeError.
func Coerce(v Value, t Type) (Value, error) {
	return coerce(v, t, "$")
}

func coerce(v Value, t Type, path string) (Value, error) {
	if v.typ == t {
		return v, nil
	}
	switch t {
	case TypeFloat:
		if v.typ == TypeInteger {
			return Float(float64(v.intVal)), nil
		}
	case TypeVector:
		return vectorFromList(v, path)
	case TypeDateTime:
		dt, err := dateTimeFromList(v, path)
		if err != nil {
			return Value{}, err
		}
		return DateTimeValue(dt), nil
	}
	return Value{}, &TypeError{Path: path, Want: t, Got: v.typ}
}

// VectorFromList converts a List whose elements are all Integer or Float
// into a Vector. An empty List becomes an empty Vector.
func VectorFromList(v Value) (Value, error) {
	return vectorFromList(v, "$")
}

func vectorFromList(v Value, path string) (Value, error) {
	if v.typ == TypeVector {
		return v, nil
	}
	if v.typ != TypeList {
		return Value{}, &TypeError{Path: path, Want: TypeVector, Got: v.typ}
	}
	vec := make([]float64, len(v.listVal))
	for i, elem := range v.listVal {
		switch elem.typ {
		case TypeFloat:
			vec[i] = elem.floatVal
		case TypeInteger:
			vec[i] = float64(elem.intVal)
		default:
			return Value{}, &TypeError{Path: indexPath(path, i), Want: TypeFloat, Got: elem.typ,
				Reason: "vector elements must be numeric"}
		}
	}
	return vector(vec), nil
}

// DecodeAs decodes data and narrows the result to t with Coerce.
func DecodeAs(data []byte, t Type) (Value, error) {
	v, err := Decode(data)
	if err != nil {
		return Value{}, err
	}
	return Coerce(v, t)
}

// DecodeVector decodes a JSON array of numbers (or special float tokens)
// into a Vector.
func DecodeVector(data []byte) (Value, error) {
	return DecodeAs(data, TypeVector)
}
