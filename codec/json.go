package codec

import "github.com/Neumenon/flexjson/flex"

// JSON is the flex JSON text codec. The zero value is ready to use.
//
// JSON loses some variant tags: Vector and DateTime decode as List. Use
// TypedJSON, CBOR or Msgpack when the tag must survive.
type JSON struct{}

func (JSON) Encode(v flex.Value) ([]byte, error) { return flex.Encode(v) }
func (JSON) Decode(b []byte) (flex.Value, error) { return flex.Decode(b) }

// TypedJSON decodes JSON and narrows the result to Want with flex.Coerce.
type TypedJSON struct {
	Want flex.Type
}

func (TypedJSON) Encode(v flex.Value) ([]byte, error) { return flex.Encode(v) }
func (c TypedJSON) Decode(b []byte) (flex.Value, error) {
	return flex.DecodeAs(b, c.Want)
}
