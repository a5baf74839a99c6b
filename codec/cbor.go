package codec

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/Neumenon/flexjson/flex"
)

// cborMaxNesting bounds decode recursion. Each flex container level costs two
// CBOR levels (the envelope map and its array or map payload).
const cborMaxNesting = 1024

// cborMaxElements bounds array length and map size on decode.
const cborMaxElements = 1 << 24

// CBOR is a lossless flex.Value codec using fxamacker/cbor.
// The zero value is NOT ready to use. Construct with NewCBOR or MustCBOR.
//
// Use deterministic=true for canonical encoding (RFC 8949 Core Deterministic)
// when you need byte-for-byte stable outputs (e.g., hashing/content addressing).
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// NewCBOR constructs a CBOR codec.
//   - Deterministic is true, uses CoreDetEncOptions (RFC 8949).
//   - Otherwise uses PreferredUnsortedEncOptions (smaller/faster defaults).
func NewCBOR(deterministic bool) (CBOR, error) {
	var eo cbor.EncOptions
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	} else {
		eo = cbor.PreferredUnsortedEncOptions()
	}

	em, err := eo.EncMode()
	if err != nil {
		return CBOR{}, err
	}
	dm, err := (cbor.DecOptions{
		MaxNestedLevels:  cborMaxNesting,
		MaxArrayElements: cborMaxElements,
		MaxMapPairs:      cborMaxElements,
	}).DecMode()
	if err != nil {
		return CBOR{}, err
	}
	return CBOR{enc: em, dec: dm}, nil
}

// MustCBOR is like NewCBOR but panics on error.
func MustCBOR(deterministic bool) CBOR {
	c, err := NewCBOR(deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

// Encode encodes v as CBOR using the configured EncMode.
func (c CBOR) Encode(v flex.Value) ([]byte, error) {
	w, err := toWire(v, "$")
	if err != nil {
		return nil, err
	}
	return c.enc.Marshal(w)
}

// Decode decodes b into a flex.Value using the configured DecMode.
func (c CBOR) Decode(b []byte) (flex.Value, error) {
	var w wireValue
	if err := c.dec.Unmarshal(b, &w); err != nil {
		return flex.Value{}, err
	}
	return fromWire(w)
}
