package flex

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedType is returned for variants the JSON wire format cannot carry (Image).
	ErrUnsupportedType = errors.New("flex: unsupported type")
	// ErrInvalidUTF8 is returned when a String payload or Dict key is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("flex: invalid UTF-8")
	// ErrInvalidDateTime is returned when a DateTime field is out of range.
	ErrInvalidDateTime = errors.New("flex: invalid datetime")
	// ErrIntegerRange is returned when a host integer does not fit in int64.
	ErrIntegerRange = errors.New("flex: integer out of range")
)

// EncodingError reports a value that cannot be rendered. Nothing is emitted
// when it is returned.
type EncodingError struct {
	Path string // location inside the value, e.g. $["items"][3]
	Type Type
	Err  error
}

func (e *EncodingError) Error() string {
	path := e.Path
	if path == "" {
		path = "$"
	}
	return fmt.Sprintf("flex: cannot encode %s at %s: %v", e.Type, path, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// ParseError reports malformed JSON text. Offset is the byte offset of the
// failure in the input.
type ParseError struct {
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("flex: %s at offset %d", e.Message, e.Offset)
}

// TypeError reports a decoded value whose shape does not match the type a
// typed entry point asked for.
type TypeError struct {
	Path   string
	Want   Type
	Got    Type
	Reason string
}

func (e *TypeError) Error() string {
	path := e.Path
	if path == "" {
		path = "$"
	}
	if e.Reason != "" {
		return fmt.Sprintf("flex: expected %s at %s, got %s: %s", e.Want, path, e.Got, e.Reason)
	}
	return fmt.Sprintf("flex: expected %s at %s, got %s", e.Want, path, e.Got)
}

func indexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

func keyPath(parent, key string) string {
	return fmt.Sprintf("%s[%q]", parent, key)
}
