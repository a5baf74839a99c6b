package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Zstd compresses the output of an inner codec with zstandard.
// Construct with NewZstd; call Close when done.
type Zstd[V any] struct {
	Inner Codec[V]

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstd wraps inner. level follows the zstd command line scale (1-22);
// 0 picks the library default.
func NewZstd[V any](inner Codec[V], level int) (*Zstd[V], error) {
	var encOpts []zstd.EOption
	if level > 0 {
		encOpts = append(encOpts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	}
	enc, err := zstd.NewWriter(nil, encOpts...)
	if err != nil {
		return nil, fmt.Errorf("codec: zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("codec: zstd decoder: %w", err)
	}
	return &Zstd[V]{Inner: inner, enc: enc, dec: dec}, nil
}

func (c *Zstd[V]) Encode(v V) ([]byte, error) {
	raw, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(raw, make([]byte, 0, len(raw))), nil
}

func (c *Zstd[V]) Decode(b []byte) (V, error) {
	raw, err := c.dec.DecodeAll(b, nil)
	if err != nil {
		var zero V
		return zero, fmt.Errorf("codec: zstd: %w", err)
	}
	return c.Inner.Decode(raw)
}

// Close releases the encoder and decoder.
func (c *Zstd[V]) Close() error {
	c.dec.Close()
	return c.enc.Close()
}
