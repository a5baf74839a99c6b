// Package flex implements a JSON codec for FlexValue, a closed dynamic value
// type used to move host values across a language/runtime boundary.
//
// # Data Model
//
// A Value holds exactly one of:
//
//	Undefined, Integer (int64), Float (float64), String, Vector ([]float64),
//	List ([]Value), Dict (map[string]Value), DateTime, Image
//
// Values are immutable and safe to share between goroutines.
//
// # Wire Format
//
// Standard JSON with two conventions:
//
//	Float    always has a decimal point:        1.0  -2.5  1.0e+21
//	         non-finite values are strings:     "NaN" "Infinity" "-Infinity"
//	DateTime [epoch_seconds, offset|null, microseconds]
//	         offset is in quarter hours:        UTC-7 -> -28
//
// Integers are emitted as bare digits for the full int64 range.
//
// # Known Information Loss
//
// JSON has fewer shapes than Value, so Decode(Encode(v)) is not always v:
//   - a Vector decodes as a List of Float (use DecodeVector or Coerce)
//   - a DateTime decodes as a List of three values (use DecodeDateTime)
//   - a String whose content is "NaN", "Infinity" or "-Infinity" decodes as a Float
//   - Dict key order is not preserved (Encode sorts keys)
//   - an unpaired UTF-16 surrogate escape such as \ud800 decodes as U+FFFD
//
// None of these are errors.
//
// # Example
//
//	v := flex.List(flex.String("hello"), flex.Integer(3), flex.Undefined())
//	text, _ := flex.Encode(v)        // ["hello",3,null]
//	back, _ := flex.Decode(text)
//	flex.Equal(v, back)              // true
package flex
