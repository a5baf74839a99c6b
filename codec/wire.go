package codec

import (
	"fmt"
	"unicode/utf8"

	"github.com/Neumenon/flexjson/flex"
)

// wireValue is the tagged envelope shared by the binary codecs. T selects
// which payload fields are meaningful, so no variant is lost in transit.
//
// F and O are pointers so that -0.0 and a zero offset survive omitempty.
type wireValue struct {
	T flex.Type            `cbor:"1,keyasint" msgpack:"t"`
	I int64                `cbor:"2,keyasint,omitempty" msgpack:"i,omitempty"`
	F *float64             `cbor:"3,keyasint,omitempty" msgpack:"f,omitempty"`
	S string               `cbor:"4,keyasint,omitempty" msgpack:"s,omitempty"`
	V []float64            `cbor:"5,keyasint,omitempty" msgpack:"v,omitempty"`
	L []wireValue          `cbor:"6,keyasint,omitempty" msgpack:"l,omitempty"`
	D map[string]wireValue `cbor:"7,keyasint,omitempty" msgpack:"d,omitempty"`
	O *int32               `cbor:"8,keyasint,omitempty" msgpack:"o,omitempty"`
	U int32                `cbor:"9,keyasint,omitempty" msgpack:"u,omitempty"`
	M *wireImage           `cbor:"10,keyasint,omitempty" msgpack:"m,omitempty"`
}

type wireImage struct {
	Width    int    `cbor:"1,keyasint,omitempty" msgpack:"w,omitempty"`
	Height   int    `cbor:"2,keyasint,omitempty" msgpack:"h,omitempty"`
	Channels int    `cbor:"3,keyasint,omitempty" msgpack:"c,omitempty"`
	Format   string `cbor:"4,keyasint,omitempty" msgpack:"f,omitempty"`
	Data     []byte `cbor:"5,keyasint,omitempty" msgpack:"b,omitempty"`
}

func toWire(v flex.Value, path string) (wireValue, error) {
	w := wireValue{T: v.Type()}
	switch v.Type() {
	case flex.TypeUndefined:

	case flex.TypeInteger:
		w.I, _ = v.AsInteger()

	case flex.TypeFloat:
		f, _ := v.AsFloat()
		w.F = &f

	case flex.TypeString:
		s, _ := v.AsString()
		if !utf8.ValidString(s) {
			return wireValue{}, &flex.EncodingError{Path: path, Type: flex.TypeString, Err: flex.ErrInvalidUTF8}
		}
		w.S = s

	case flex.TypeVector:
		w.V, _ = v.AsVector()

	case flex.TypeList:
		items, _ := v.AsList()
		w.L = make([]wireValue, len(items))
		for i, item := range items {
			elem, err := toWire(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return wireValue{}, err
			}
			w.L[i] = elem
		}

	case flex.TypeDict:
		m, _ := v.AsDict()
		w.D = make(map[string]wireValue, len(m))
		for k, item := range m {
			if !utf8.ValidString(k) {
				return wireValue{}, &flex.EncodingError{Path: path, Type: flex.TypeDict, Err: flex.ErrInvalidUTF8}
			}
			elem, err := toWire(item, fmt.Sprintf("%s[%q]", path, k))
			if err != nil {
				return wireValue{}, err
			}
			w.D[k] = elem
		}

	case flex.TypeDateTime:
		dt, _ := v.AsDateTime()
		if err := dt.Validate(); err != nil {
			return wireValue{}, &flex.EncodingError{Path: path, Type: flex.TypeDateTime, Err: err}
		}
		w.I = dt.EpochSeconds
		w.U = dt.Microseconds
		if off, ok := dt.Offset(); ok {
			w.O = &off
		}

	case flex.TypeImage:
		img, _ := v.AsImage()
		w.M = &wireImage{
			Width:    img.Width,
			Height:   img.Height,
			Channels: img.Channels,
			Format:   img.Format,
			Data:     img.Data,
		}

	default:
		return wireValue{}, &flex.EncodingError{Path: path, Type: v.Type(), Err: flex.ErrUnsupportedType}
	}
	return w, nil
}

func fromWire(w wireValue) (flex.Value, error) {
	switch w.T {
	case flex.TypeUndefined:
		return flex.Undefined(), nil

	case flex.TypeInteger:
		return flex.Integer(w.I), nil

	case flex.TypeFloat:
		if w.F == nil {
			return flex.Float(0), nil
		}
		return flex.Float(*w.F), nil

	case flex.TypeString:
		return flex.String(w.S), nil

	case flex.TypeVector:
		return flex.Vector(w.V...), nil

	case flex.TypeList:
		items := make([]flex.Value, len(w.L))
		for i, elem := range w.L {
			v, err := fromWire(elem)
			if err != nil {
				return flex.Value{}, err
			}
			items[i] = v
		}
		return flex.List(items...), nil

	case flex.TypeDict:
		m := make(map[string]flex.Value, len(w.D))
		for k, elem := range w.D {
			v, err := fromWire(elem)
			if err != nil {
				return flex.Value{}, err
			}
			m[k] = v
		}
		return flex.Dict(m), nil

	case flex.TypeDateTime:
		var (
			dt  flex.DateTime
			err error
		)
		if w.O != nil {
			dt, err = flex.NewDateTime(w.I, *w.O, w.U)
		} else {
			dt, err = flex.NewNaiveDateTime(w.I, w.U)
		}
		if err != nil {
			return flex.Value{}, fmt.Errorf("codec: %w", err)
		}
		return flex.DateTimeValue(dt), nil

	case flex.TypeImage:
		if w.M == nil {
			return flex.ImageValue(flex.Image{}), nil
		}
		return flex.ImageValue(flex.Image{
			Width:    w.M.Width,
			Height:   w.M.Height,
			Channels: w.M.Channels,
			Format:   w.M.Format,
			Data:     w.M.Data,
		}), nil

	default:
		return flex.Value{}, fmt.Errorf("codec: unknown value tag %d", w.T)
	}
}
