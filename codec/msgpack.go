package codec

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Neumenon/flexjson/flex"
)

// msgpackMaxNesting bounds decode recursion, counted the way CBOR counts it:
// the envelope map and its list or dict payload are one level each.
const msgpackMaxNesting = cborMaxNesting

// Msgpack is a lossless flex.Value codec using vmihailenco/msgpack/v5.
// The zero value is ready to use.
type Msgpack struct{}

func (Msgpack) Encode(v flex.Value) ([]byte, error) {
	w, err := toWire(v, "$")
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(w)
}

func (Msgpack) Decode(b []byte) (flex.Value, error) {
	var w wireValue
	if err := msgpack.Unmarshal(b, &w); err != nil {
		return flex.Value{}, err
	}
	return fromWire(w)
}

var _ msgpack.CustomDecoder = (*wireValue)(nil)

// DecodeMsgpack reads the envelope by hand so that nesting depth and
// container sizes are checked before anything is allocated.
func (w *wireValue) DecodeMsgpack(d *msgpack.Decoder) error {
	return w.decodeMsgpack(d, 1)
}

func (w *wireValue) decodeMsgpack(d *msgpack.Decoder, depth int) error {
	if depth > msgpackMaxNesting {
		return fmt.Errorf("codec: msgpack: exceeded max nesting depth %d", msgpackMaxNesting)
	}
	n, err := d.DecodeMapLen()
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("codec: msgpack: nil value envelope")
	}

	for i := 0; i < n; i++ {
		key, err := d.DecodeString()
		if err != nil {
			return err
		}
		switch key {
		case "t":
			t, err := d.DecodeUint8()
			if err != nil {
				return err
			}
			w.T = flex.Type(t)
		case "i":
			if w.I, err = d.DecodeInt64(); err != nil {
				return err
			}
		case "f":
			f, err := d.DecodeFloat64()
			if err != nil {
				return err
			}
			w.F = &f
		case "s":
			if w.S, err = d.DecodeString(); err != nil {
				return err
			}
		case "v":
			if w.V, err = decodeFloats(d); err != nil {
				return err
			}
		case "l":
			size, err := msgpackLen(d.DecodeArrayLen())
			if err != nil {
				return err
			}
			w.L = make([]wireValue, size)
			for j := range w.L {
				if err := w.L[j].decodeMsgpack(d, depth+2); err != nil {
					return err
				}
			}
		case "d":
			size, err := msgpackLen(d.DecodeMapLen())
			if err != nil {
				return err
			}
			w.D = make(map[string]wireValue, size)
			for j := 0; j < size; j++ {
				k, err := d.DecodeString()
				if err != nil {
					return err
				}
				var elem wireValue
				if err := elem.decodeMsgpack(d, depth+2); err != nil {
					return err
				}
				w.D[k] = elem
			}
		case "o":
			o, err := d.DecodeInt32()
			if err != nil {
				return err
			}
			w.O = &o
		case "u":
			if w.U, err = d.DecodeInt32(); err != nil {
				return err
			}
		case "m":
			w.M = new(wireImage)
			if err := d.Decode(w.M); err != nil {
				return err
			}
		default:
			if err := d.Skip(); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeFloats(d *msgpack.Decoder) ([]float64, error) {
	size, err := msgpackLen(d.DecodeArrayLen())
	if err != nil {
		return nil, err
	}
	vec := make([]float64, size)
	for i := range vec {
		if vec[i], err = d.DecodeFloat64(); err != nil {
			return nil, err
		}
	}
	return vec, nil
}

// msgpackLen maps a nil container to zero and rejects oversized ones.
func msgpackLen(n int, err error) (int, error) {
	switch {
	case err != nil:
		return 0, err
	case n < 0:
		return 0, nil
	case n > cborMaxElements:
		return 0, fmt.Errorf("codec: msgpack: container of %d elements exceeds limit %d", n, cborMaxElements)
	}
	return n, nil
}
