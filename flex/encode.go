package flex

import (
	"sort"
	"unicode/utf8"
)

// ============================================================
// Encoder
// ============================================================

// Encode renders v as JSON text.
//
// Dict keys are emitted in ascending byte order, so encoding is deterministic
// and Encode(Decode(Encode(v))) reproduces Encode(v). Encoding is
// all-or-nothing: on error no bytes are returned.
func Encode(v Value) ([]byte, error) {
	return AppendEncode(nil, v)
}

// EncodeString is Encode returning a string.
func EncodeString(v Value) (string, error) {
	b, err := Encode(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// AppendEncode appends the JSON text of v to dst. On error dst is returned
// with its original length.
func AppendEncode(dst []byte, v Value) ([]byte, error) {
	start := len(dst)
	out, err := appendValue(dst, v, "$")
	if err != nil {
		return dst[:start], err
	}
	return out, nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return Encode(v)
}

func appendValue(dst []byte, v Value, path string) ([]byte, error) {
	switch v.typ {
	case TypeUndefined:
		return append(dst, "null"...), nil

	case TypeInteger:
		return AppendInt(dst, v.intVal), nil

	case TypeFloat:
		return AppendFloat(dst, v.floatVal), nil

	case TypeString:
		if !utf8.ValidString(v.strVal) {
			return dst, &EncodingError{Path: path, Type: TypeString, Err: ErrInvalidUTF8}
		}
		return appendQuoted(dst, v.strVal), nil

	case TypeVector:
		dst = append(dst, '[')
		for i, f := range v.vecVal {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = AppendFloat(dst, f)
		}
		return append(dst, ']'), nil

	case TypeList:
		dst = append(dst, '[')
		for i, elem := range v.listVal {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			dst, err = appendValue(dst, elem, indexPath(path, i))
			if err != nil {
				return dst, err
			}
		}
		return append(dst, ']'), nil

	case TypeDict:
		keys := make([]string, 0, len(v.dictVal))
		for k := range v.dictVal {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		dst = append(dst, '{')
		for i, k := range keys {
			if !utf8.ValidString(k) {
				return dst, &EncodingError{Path: path, Type: TypeDict, Err: ErrInvalidUTF8}
			}
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendQuoted(dst, k)
			dst = append(dst, ':')
			var err error
			dst, err = appendValue(dst, v.dictVal[k], keyPath(path, k))
			if err != nil {
				return dst, err
			}
		}
		return append(dst, '}'), nil

	case TypeDateTime:
		if err := v.dtVal.Validate(); err != nil {
			return dst, &EncodingError{Path: path, Type: TypeDateTime, Err: err}
		}
		return appendDateTime(dst, v.dtVal), nil

	case TypeImage:
		return dst, &EncodingError{Path: path, Type: TypeImage, Err: ErrUnsupportedType}

	default:
		return dst, &EncodingError{Path: path, Type: v.typ, Err: ErrUnsupportedType}
	}
}

// ============================================================
// String Quoting
// ============================================================

const hexDigits = "0123456789ABCDEF"

// appendQuoted appends s as a JSON string. Quote, backslash and control
// characters are escaped; everything else, including non-ASCII, is copied.
// s must be valid UTF-8.
func appendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' {
			continue
		}
		dst = append(dst, s[start:i]...)
		switch c {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
		}
		start = i + 1
	}
	dst = append(dst, s[start:]...)
	return append(dst, '"')
}

// Quote returns s as a JSON string literal, or ErrInvalidUTF8.
func Quote(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", &EncodingError{Path: "$", Type: TypeString, Err: ErrInvalidUTF8}
	}
	return string(appendQuoted(nil, s)), nil
}
