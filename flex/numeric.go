package flex

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// ============================================================
// Numeric Formatting
// ============================================================
//
// Integers are plain base-10 digits. Floats always carry a decimal point so
// the decoder can tell them apart from integers by text shape alone:
//   1.0  -0.0  2.5  1.0e+21  1.0e-7
// Non-finite floats become quoted JSON strings:
//   "NaN"  "Infinity"  "-Infinity"

// Special float tokens, unquoted.
const (
	TokenNaN         = "NaN"
	TokenInfinity    = "Infinity"
	TokenNegInfinity = "-Infinity"
)

// FormatInt returns the exact decimal text of i.
//
// Integers outside the ±2^53 range are still emitted as bare numbers; a
// consumer that parses every JSON number as a double will lose precision.
func FormatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// AppendInt appends the decimal text of i to dst.
func AppendInt(dst []byte, i int64) []byte {
	return strconv.AppendInt(dst, i, 10)
}

// FormatFloat returns the JSON text of f: the shortest decimal that parses
// back to f, always containing a '.', or a quoted token for NaN and ±Inf.
func FormatFloat(f float64) string {
	return string(AppendFloat(nil, f))
}

// AppendFloat appends the JSON text of f to dst.
func AppendFloat(dst []byte, f float64) []byte {
	switch {
	case math.IsNaN(f):
		return append(dst, `"`+TokenNaN+`"`...)
	case math.IsInf(f, 1):
		return append(dst, `"`+TokenInfinity+`"`...)
	case math.IsInf(f, -1):
		return append(dst, `"`+TokenNegInfinity+`"`...)
	}

	// Same notation switch as encoding/json and ECMAScript.
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}

	start := len(dst)
	dst = strconv.AppendFloat(dst, f, format, -1, 64)
	num := dst[start:]

	if format == 'e' {
		// clean up e-09 to e-9
		n := len(dst)
		if n-start >= 4 && dst[n-4] == 'e' && dst[n-3] == '-' && dst[n-2] == '0' {
			dst[n-2] = dst[n-1]
			dst = dst[:n-1]
		}
		num = dst[start:]
		e := bytes.IndexByte(num, 'e')
		if bytes.IndexByte(num[:e], '.') < 0 {
			// 1e+21 -> 1.0e+21
			exp := append([]byte(nil), num[e:]...)
			dst = append(dst[:start+e], '.', '0')
			dst = append(dst, exp...)
		}
		return dst
	}

	if bytes.IndexByte(num, '.') < 0 {
		dst = append(dst, '.', '0')
	}
	return dst
}

// SpecialFloat maps an unquoted special token to its float value.
func SpecialFloat(token string) (float64, bool) {
	switch token {
	case TokenNaN:
		return math.NaN(), true
	case TokenInfinity:
		return math.Inf(1), true
	case TokenNegInfinity:
		return math.Inf(-1), true
	default:
		return 0, false
	}
}

// ============================================================
// Numeric Parsing
// ============================================================

// ParseInt parses a JSON integer lexeme (no fraction, no exponent, no '+',
// no leading zeros).
func ParseInt(s string) (int64, error) {
	n, isFloat, ok := scanNumber(s, 0)
	if !ok || n != len(s) || isFloat {
		return 0, fmt.Errorf("flex: invalid integer %q", s)
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("flex: integer %q: %w", s, ErrIntegerRange)
	}
	return i, nil
}

// ParseFloat parses a JSON number lexeme, or one of the quoted tokens
// "NaN", "Infinity" and "-Infinity" (quotes included).
func ParseFloat(s string) (float64, error) {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if f, ok := SpecialFloat(s[1 : len(s)-1]); ok {
			return f, nil
		}
		return 0, fmt.Errorf("flex: invalid float %s", s)
	}
	n, _, ok := scanNumber(s, 0)
	if !ok || n != len(s) {
		return 0, fmt.Errorf("flex: invalid float %q", s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("flex: float %q out of range", s)
	}
	return f, nil
}

// scanNumber matches the JSON number grammar
//
//	-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?
//
// starting at s[i]. It returns the end offset and whether a fraction or
// exponent was present. ok is false when no valid number starts at i.
func scanNumber(s string, i int) (end int, isFloat bool, ok bool) {
	if i < len(s) && s[i] == '-' {
		i++
	}
	if i >= len(s) {
		return i, false, false
	}
	switch {
	case s[i] == '0':
		i++
	case s[i] >= '1' && s[i] <= '9':
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	default:
		return i, false, false
	}
	if i < len(s) && s[i] == '.' {
		i++
		if i >= len(s) || !isDigit(s[i]) {
			return i, false, false
		}
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		isFloat = true
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if i >= len(s) || !isDigit(s[i]) {
			return i, false, false
		}
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		isFloat = true
	}
	return i, isFloat, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
