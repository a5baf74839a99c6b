// Package stream frames flex values for transport over byte streams.
//
// Every frame is a one-line text header followed by the value's JSON
// encoding:
//
//	@frame{v=1 sid=N seq=N kind=K len=N [crc=X] [hash=sha256:X] [final=true]}\n
//	<payload bytes>\n
//
// The frame provides:
//   - Message boundaries (len) so payloads may contain newlines
//   - Multiplexing via stream IDs (sid)
//   - Ordering via sequence numbers (seq)
//   - Integrity via optional CRC-32 of the payload
//   - End-to-end fidelity via an optional SHA-256 of the canonical encoding
//
// The kind records the variant JSON cannot express, so a Vector or DateTime
// written on one side decodes as a Vector or DateTime on the other.
package stream

import (
	"fmt"
	"strconv"

	"github.com/Neumenon/flexjson/flex"
)

// Version is the frame protocol version.
const Version uint8 = 1

// FrameKind selects how a frame's payload is decoded.
type FrameKind uint8

const (
	KindValue    FrameKind = 0 // Generic flex value (flex.Decode)
	KindVector   FrameKind = 1 // Vector (flex.DecodeVector)
	KindDateTime FrameKind = 2 // DateTime (flex.DecodeDateTime)
	KindErr      FrameKind = 3 // Error event from the remote side
	KindAck      FrameKind = 4 // Acknowledgement, no payload
)

// String returns the kind name.
func (k FrameKind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindVector:
		return "vector"
	case KindDateTime:
		return "datetime"
	case KindErr:
		return "err"
	case KindAck:
		return "ack"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ParseKind parses a kind name or its numeric value.
func ParseKind(s string) (FrameKind, bool) {
	switch s {
	case "value", "0":
		return KindValue, true
	case "vector", "1":
		return KindVector, true
	case "datetime", "2":
		return KindDateTime, true
	case "err", "3":
		return KindErr, true
	case "ack", "4":
		return KindAck, true
	default:
		n, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return 0, false
		}
		return FrameKind(n), true
	}
}

// KindFor returns the frame kind that preserves values of type t.
func KindFor(t flex.Type) FrameKind {
	switch t {
	case flex.TypeVector:
		return KindVector
	case flex.TypeDateTime:
		return KindDateTime
	default:
		return KindValue
	}
}

// Frame represents a single frame.
type Frame struct {
	// Required fields
	Version uint8     // Protocol version (must be 1)
	SID     uint64    // Stream identifier
	Seq     uint64    // Sequence number (per-SID, monotonic, starts at 1)
	Kind    FrameKind // Frame kind
	Payload []byte    // JSON payload bytes (UTF-8)

	// Optional fields
	CRC   *uint32   // CRC-32 of payload (nil if not present)
	Hash  *[32]byte // SHA-256 of the canonical value encoding (nil if not present)
	Final bool      // End-of-stream marker for this SID
}

// HasCRC returns true if CRC is present.
func (f *Frame) HasCRC() bool {
	return f.CRC != nil
}

// HasHash returns true if a value hash is present.
func (f *Frame) HasHash() bool {
	return f.Hash != nil
}

// Decode decodes the payload according to the frame kind. An err frame
// decodes to a *RemoteError. When a hash is present the decoded value is
// re-encoded and checked against it.
func (f *Frame) Decode() (flex.Value, error) {
	var (
		v   flex.Value
		err error
	)
	switch f.Kind {
	case KindValue:
		v, err = flex.Decode(f.Payload)
	case KindVector:
		v, err = flex.DecodeVector(f.Payload)
	case KindDateTime:
		var dt flex.DateTime
		dt, err = flex.DecodeDateTime(f.Payload)
		v = flex.DateTimeValue(dt)
	case KindErr:
		return flex.Value{}, parseRemoteError(f)
	case KindAck:
		return flex.Undefined(), nil
	default:
		return flex.Value{}, fmt.Errorf("stream: cannot decode frame kind %s", f.Kind)
	}
	if err != nil {
		return flex.Value{}, fmt.Errorf("stream: sid=%d seq=%d: %w", f.SID, f.Seq, err)
	}

	if f.Hash != nil {
		got, err := ValueHash(v)
		if err != nil {
			return flex.Value{}, fmt.Errorf("stream: sid=%d seq=%d: %w", f.SID, f.Seq, err)
		}
		if got != *f.Hash {
			return flex.Value{}, &HashMismatchError{Expected: *f.Hash, Got: got}
		}
	}
	return v, nil
}

// MaxPayloadSize is the default maximum payload size (64 MiB).
const MaxPayloadSize = 64 * 1024 * 1024

// maxHeaderLen bounds the header line, including the newline.
const maxHeaderLen = 4096

// ParseError reports a malformed frame. Offset is the byte offset of the
// frame header in the stream, or -1 when unknown.
type ParseError struct {
	Reason string
	Offset int64
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("stream: %s at offset %d", e.Reason, e.Offset)
	}
	return fmt.Sprintf("stream: %s", e.Reason)
}

// CRCMismatchError is returned when CRC verification fails.
type CRCMismatchError struct {
	Expected uint32
	Got      uint32
}

func (e *CRCMismatchError) Error() string {
	return fmt.Sprintf("stream: CRC mismatch: expected %08x, got %08x", e.Expected, e.Got)
}

// HashMismatchError is returned when a decoded value does not re-encode to
// the hash the sender recorded.
type HashMismatchError struct {
	Expected [32]byte
	Got      [32]byte
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("stream: value hash mismatch: expected %s, got %s",
		HashToHex(e.Expected)[:12], HashToHex(e.Got)[:12])
}
