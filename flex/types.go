package flex

import (
	"fmt"
	"math"
	"sort"
)

// Type is the variant tag of a Value.
type Type uint8

const (
	TypeUndefined Type = iota
	TypeInteger
	TypeFloat
	TypeString
	TypeVector // []float64, always float on the wire
	TypeList   // heterogeneous []Value
	TypeDict   // map[string]Value
	TypeDateTime
	TypeImage // opaque, not encodable
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeUndefined:
		return "undefined"
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeVector:
		return "vector"
	case TypeList:
		return "list"
	case TypeDict:
		return "dict"
	case TypeDateTime:
		return "datetime"
	case TypeImage:
		return "image"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Value is an immutable dynamically typed value. The zero Value is Undefined.
//
// Exactly one payload field is meaningful, selected by typ. Constructors copy
// caller-owned slices and maps so a Value can be shared between goroutines
// without locking.
type Value struct {
	typ Type

	intVal   int64
	floatVal float64
	strVal   string
	vecVal   []float64
	listVal  []Value
	dictVal  map[string]Value
	dtVal    DateTime
	imgVal   *Image
}

// Image is an opaque image payload. The codec carries it in memory only.
type Image struct {
	Width    int
	Height   int
	Channels int
	Format   string
	Data     []byte
}

// ============================================================
// Constructors
// ============================================================

// Undefined returns the undefined value.
func Undefined() Value {
	return Value{}
}

// Integer creates an integer value.
func Integer(v int64) Value {
	return Value{typ: TypeInteger, intVal: v}
}

// Float creates a float value.
func Float(v float64) Value {
	return Value{typ: TypeFloat, floatVal: v}
}

// String creates a string value.
func String(v string) Value {
	return Value{typ: TypeString, strVal: v}
}

// Vector creates a numeric vector value.
func Vector(values ...float64) Value {
	vec := make([]float64, len(values))
	copy(vec, values)
	return Value{typ: TypeVector, vecVal: vec}
}

// List creates a heterogeneous list value.
func List(values ...Value) Value {
	items := make([]Value, len(values))
	copy(items, values)
	return Value{typ: TypeList, listVal: items}
}

// Dict creates a dictionary value from m.
func Dict(m map[string]Value) Value {
	d := make(map[string]Value, len(m))
	for k, v := range m {
		d[k] = v
	}
	return Value{typ: TypeDict, dictVal: d}
}

// DateTimeValue wraps dt. Range checks happen at encode time; see DateTime.Validate.
func DateTimeValue(dt DateTime) Value {
	return Value{typ: TypeDateTime, dtVal: dt}
}

// ImageValue wraps an opaque image.
func ImageValue(img Image) Value {
	data := make([]byte, len(img.Data))
	copy(data, img.Data)
	img.Data = data
	return Value{typ: TypeImage, imgVal: &img}
}

// list and dict build values from freshly allocated containers without copying.
// Only the decoder uses them.
func list(items []Value) Value {
	return Value{typ: TypeList, listVal: items}
}

func dict(m map[string]Value) Value {
	return Value{typ: TypeDict, dictVal: m}
}

func vector(vec []float64) Value {
	return Value{typ: TypeVector, vecVal: vec}
}

// ============================================================
// Accessors
// ============================================================

// Type returns the variant tag.
func (v Value) Type() Type {
	return v.typ
}

// IsUndefined reports whether v is the undefined value.
func (v Value) IsUndefined() bool {
	return v.typ == TypeUndefined
}

// AsInteger returns the integer payload.
func (v Value) AsInteger() (int64, error) {
	if v.typ != TypeInteger {
		return 0, v.mismatch(TypeInteger)
	}
	return v.intVal, nil
}

// AsFloat returns the float payload.
func (v Value) AsFloat() (float64, error) {
	if v.typ != TypeFloat {
		return 0, v.mismatch(TypeFloat)
	}
	return v.floatVal, nil
}

// AsString returns the string payload.
func (v Value) AsString() (string, error) {
	if v.typ != TypeString {
		return "", v.mismatch(TypeString)
	}
	return v.strVal, nil
}

// AsVector returns a copy of the vector payload.
func (v Value) AsVector() ([]float64, error) {
	if v.typ != TypeVector {
		return nil, v.mismatch(TypeVector)
	}
	out := make([]float64, len(v.vecVal))
	copy(out, v.vecVal)
	return out, nil
}

// AsList returns a copy of the list elements.
func (v Value) AsList() ([]Value, error) {
	if v.typ != TypeList {
		return nil, v.mismatch(TypeList)
	}
	out := make([]Value, len(v.listVal))
	copy(out, v.listVal)
	return out, nil
}

// AsDict returns a copy of the dictionary.
func (v Value) AsDict() (map[string]Value, error) {
	if v.typ != TypeDict {
		return nil, v.mismatch(TypeDict)
	}
	out := make(map[string]Value, len(v.dictVal))
	for k, e := range v.dictVal {
		out[k] = e
	}
	return out, nil
}

// AsDateTime returns the datetime payload.
func (v Value) AsDateTime() (DateTime, error) {
	if v.typ != TypeDateTime {
		return DateTime{}, v.mismatch(TypeDateTime)
	}
	return v.dtVal, nil
}

// AsImage returns a copy of the image payload.
func (v Value) AsImage() (Image, error) {
	if v.typ != TypeImage {
		return Image{}, v.mismatch(TypeImage)
	}
	img := *v.imgVal
	img.Data = make([]byte, len(v.imgVal.Data))
	copy(img.Data, v.imgVal.Data)
	return img, nil
}

func (v Value) mismatch(want Type) error {
	return &TypeError{Path: "$", Want: want, Got: v.typ}
}

// Len returns the number of elements of a vector, list or dict, and 0 otherwise.
func (v Value) Len() int {
	switch v.typ {
	case TypeVector:
		return len(v.vecVal)
	case TypeList:
		return len(v.listVal)
	case TypeDict:
		return len(v.dictVal)
	default:
		return 0
	}
}

// Index returns the i-th element of a list, or of a vector as a Float.
func (v Value) Index(i int) (Value, error) {
	switch v.typ {
	case TypeList:
		if i < 0 || i >= len(v.listVal) {
			return Value{}, fmt.Errorf("flex: index %d out of bounds (len=%d)", i, len(v.listVal))
		}
		return v.listVal[i], nil
	case TypeVector:
		if i < 0 || i >= len(v.vecVal) {
			return Value{}, fmt.Errorf("flex: index %d out of bounds (len=%d)", i, len(v.vecVal))
		}
		return Float(v.vecVal[i]), nil
	default:
		return Value{}, fmt.Errorf("flex: cannot index %s", v.typ)
	}
}

// Get returns the dict entry for key.
func (v Value) Get(key string) (Value, bool) {
	if v.typ != TypeDict {
		return Value{}, false
	}
	e, ok := v.dictVal[key]
	return e, ok
}

// Keys returns the dict keys in ascending byte order.
func (v Value) Keys() []string {
	if v.typ != TypeDict {
		return nil
	}
	keys := make([]string, 0, len(v.dictVal))
	for k := range v.dictVal {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsNaN reports whether v is a Float holding NaN.
func (v Value) IsNaN() bool {
	return v.typ == TypeFloat && math.IsNaN(v.floatVal)
}

// IsInf reports whether v is a Float holding an infinity with the given sign,
// following math.IsInf.
func (v Value) IsInf(sign int) bool {
	return v.typ == TypeFloat && math.IsInf(v.floatVal, sign)
}

// String renders v as JSON text for debugging. Values that cannot be encoded
// render as a short placeholder.
func (v Value) String() string {
	b, err := Encode(v)
	if err != nil {
		return "<" + v.typ.String() + ">"
	}
	return string(b)
}

// ============================================================
// Equality
// ============================================================

// Equal reports whether a and b carry the same variant and payload.
// Floats compare bit-for-bit, except that all NaNs are equal to each other.
// Integer(1) and Float(1) are not equal.
func Equal(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case TypeUndefined:
		return true
	case TypeInteger:
		return a.intVal == b.intVal
	case TypeFloat:
		return floatEqual(a.floatVal, b.floatVal)
	case TypeString:
		return a.strVal == b.strVal
	case TypeVector:
		if len(a.vecVal) != len(b.vecVal) {
			return false
		}
		for i := range a.vecVal {
			if !floatEqual(a.vecVal[i], b.vecVal[i]) {
				return false
			}
		}
		return true
	case TypeList:
		if len(a.listVal) != len(b.listVal) {
			return false
		}
		for i := range a.listVal {
			if !Equal(a.listVal[i], b.listVal[i]) {
				return false
			}
		}
		return true
	case TypeDict:
		if len(a.dictVal) != len(b.dictVal) {
			return false
		}
		for k, av := range a.dictVal {
			bv, ok := b.dictVal[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case TypeDateTime:
		return a.dtVal == b.dtVal
	case TypeImage:
		ai, bi := a.imgVal, b.imgVal
		if ai.Width != bi.Width || ai.Height != bi.Height || ai.Channels != bi.Channels || ai.Format != bi.Format {
			return false
		}
		return string(ai.Data) == string(bi.Data)
	default:
		return false
	}
}

func floatEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Float64bits(a) == math.Float64bits(b)
}
