// Package codec adapts flex values to pluggable byte codecs.
//
// JSON is the flex wire format. CBOR and Msgpack carry a tagged envelope and
// keep every variant distinct (a Vector stays a Vector, a DateTime stays a
// DateTime). LimitCodec, Zstd and Logging wrap any other codec.
package codec

import (
	"fmt"
	"sort"

	"github.com/Neumenon/flexjson/flex"
)

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

var (
	_ Codec[flex.Value] = JSON{}
	_ Codec[flex.Value] = TypedJSON{}
	_ Codec[flex.Value] = CBOR{}
	_ Codec[flex.Value] = Msgpack{}
)

var registry = map[string]func() (Codec[flex.Value], error){
	"json": func() (Codec[flex.Value], error) { return JSON{}, nil },
	"cbor": func() (Codec[flex.Value], error) {
		c, err := NewCBOR(true)
		if err != nil {
			return nil, err
		}
		return c, nil
	},
	"msgpack": func() (Codec[flex.Value], error) { return Msgpack{}, nil },
}

// ByName returns the flex.Value codec registered under name:
// "json", "cbor" (deterministic) or "msgpack".
func ByName(name string) (Codec[flex.Value], error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("codec: unknown codec %q (have %v)", name, Names())
	}
	return ctor()
}

// Names lists the registered codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
