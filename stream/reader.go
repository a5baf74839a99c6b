package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Neumenon/flexjson/flex"
)

// Reader reads frames from an io.Reader.
type Reader struct {
	r          *bufio.Reader
	maxPayload int
	verifyCRC  bool
	offset     int64 // bytes consumed so far
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxPayload sets the maximum payload size (default: 64 MiB).
func WithMaxPayload(max int) ReaderOption {
	return func(r *Reader) {
		r.maxPayload = max
	}
}

// WithCRCVerification turns CRC verification on or off (default: on).
func WithCRCVerification(enabled bool) ReaderOption {
	return func(r *Reader) {
		r.verifyCRC = enabled
	}
}

// NewReader creates a new frame reader.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	reader := &Reader{
		r:          bufio.NewReaderSize(r, maxHeaderLen),
		maxPayload: MaxPayloadSize,
		verifyCRC:  true,
	}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// Next reads and returns the next frame.
// Returns io.EOF when no more frames are available.
func (r *Reader) Next() (*Frame, error) {
	start := r.offset

	line, err := r.r.ReadSlice('\n')
	r.offset += int64(len(line))
	switch {
	case err == io.EOF && len(line) == 0:
		return nil, io.EOF
	case err == io.EOF:
		return nil, &ParseError{Reason: "truncated header", Offset: start}
	case errors.Is(err, bufio.ErrBufferFull):
		return nil, &ParseError{Reason: fmt.Sprintf("header longer than %d bytes", maxHeaderLen), Offset: start}
	case err != nil:
		return nil, fmt.Errorf("stream: read header: %w", err)
	}

	frame, payloadLen, err := parseHeader(string(line), start)
	if err != nil {
		return nil, err
	}
	if payloadLen > r.maxPayload {
		return nil, &ParseError{Reason: fmt.Sprintf("payload too large: %d > %d", payloadLen, r.maxPayload), Offset: start}
	}

	if payloadLen > 0 {
		frame.Payload = make([]byte, payloadLen)
		n, err := io.ReadFull(r.r, frame.Payload)
		r.offset += int64(n)
		if err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("truncated payload: read %d of %d bytes", n, payloadLen), Offset: start}
		}
	}

	// Consume trailing newline (optional at EOF)
	if b, err := r.r.ReadByte(); err == nil {
		if b == '\n' {
			r.offset++
		} else {
			// Put it back - it's part of the next frame
			_ = r.r.UnreadByte()
		}
	}

	if r.verifyCRC {
		if err := frame.VerifyCRC(); err != nil {
			return nil, err
		}
	}

	return frame, nil
}

// ReadValue reads the next frame and decodes its payload.
func (r *Reader) ReadValue() (*Frame, flex.Value, error) {
	frame, err := r.Next()
	if err != nil {
		return nil, flex.Value{}, err
	}
	v, err := frame.Decode()
	if err != nil {
		return frame, flex.Value{}, err
	}
	return frame, v, nil
}

// ReadAll reads all frames until EOF.
func (r *Reader) ReadAll() ([]*Frame, error) {
	var frames []*Frame
	for {
		frame, err := r.Next()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
}

// parseHeader parses the @frame{...} header line and returns the frame
// (without payload) and the declared payload length.
func parseHeader(line string, offset int64) (*Frame, int, error) {
	line = strings.TrimSpace(line)

	if !strings.HasPrefix(line, "@frame{") {
		return nil, 0, &ParseError{Reason: "expected @frame{", Offset: offset}
	}
	if !strings.HasSuffix(line, "}") {
		return nil, 0, &ParseError{Reason: "missing closing }", Offset: offset}
	}
	content := line[len("@frame{") : len(line)-1]

	frame := &Frame{Version: Version}
	payloadLen := -1

	for _, pair := range tokenize(content) {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue // skip malformed pairs
		}

		switch key {
		case "v":
			v, err := strconv.ParseUint(val, 10, 8)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid version", Offset: offset}
			}
			if uint8(v) != Version {
				return nil, 0, &ParseError{Reason: fmt.Sprintf("unsupported version %d", v), Offset: offset}
			}
			frame.Version = uint8(v)

		case "sid":
			sid, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid sid", Offset: offset}
			}
			frame.SID = sid

		case "seq":
			seq, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid seq", Offset: offset}
			}
			frame.Seq = seq

		case "kind":
			kind, ok := ParseKind(val)
			if !ok {
				return nil, 0, &ParseError{Reason: "invalid kind: " + val, Offset: offset}
			}
			frame.Kind = kind

		case "len":
			l, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid len", Offset: offset}
			}
			payloadLen = int(l)

		case "crc":
			crc, ok := parseCRC(val)
			if !ok {
				return nil, 0, &ParseError{Reason: "invalid crc: " + val, Offset: offset}
			}
			frame.CRC = &crc

		case "hash":
			h, ok := HexToHash(strings.TrimPrefix(val, "sha256:"))
			if !ok {
				return nil, 0, &ParseError{Reason: "invalid hash: " + val, Offset: offset}
			}
			frame.Hash = &h

		case "final":
			frame.Final = val == "true" || val == "1"
		}
	}

	if payloadLen < 0 {
		return nil, 0, &ParseError{Reason: "missing len", Offset: offset}
	}
	return frame, payloadLen, nil
}

// tokenize splits key=value pairs separated by spaces, tabs or commas.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
}

// parseCRC parses CRC value: "crc32:XXXXXXXX" or "XXXXXXXX"
func parseCRC(val string) (uint32, bool) {
	val = strings.TrimPrefix(val, "crc32:")
	if len(val) != 8 {
		return 0, false
	}
	v, err := strconv.ParseUint(val, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}
