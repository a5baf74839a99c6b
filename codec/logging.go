package codec

import "time"

// Logging wraps a codec and logs every Encode/Decode outcome.
// Successes go to Debug with sizes and duration, failures to Error.
type Logging[V any] struct {
	Inner Codec[V]
	Log   Logger
	Name  string // codec name attached to every entry
}

func (c Logging[V]) logger() Logger {
	if c.Log == nil {
		return NopLogger{}
	}
	return c.Log
}

func (c Logging[V]) Encode(v V) ([]byte, error) {
	start := time.Now()
	b, err := c.Inner.Encode(v)
	duration := time.Since(start)

	if err != nil {
		c.logger().Error("codec encode error", Fields{"codec": c.Name, "error": err.Error()})
		return nil, err
	}
	c.logger().Debug("codec encode", Fields{"codec": c.Name, "bytes": len(b), "duration": duration})
	return b, nil
}

func (c Logging[V]) Decode(b []byte) (V, error) {
	start := time.Now()
	v, err := c.Inner.Decode(b)
	duration := time.Since(start)

	if err != nil {
		c.logger().Error("codec decode error", Fields{"codec": c.Name, "bytes": len(b), "error": err.Error()})
		return v, err
	}
	c.logger().Debug("codec decode", Fields{"codec": c.Name, "bytes": len(b), "duration": duration})
	return v, nil
}
