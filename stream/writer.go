package stream

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Neumenon/flexjson/flex"
)

// Writer writes frames to an io.Writer. Sequence numbers are assigned per
// SID by the WriteValue family. A Writer is not safe for concurrent use.
type Writer struct {
	w        io.Writer
	withCRC  bool // Whether to compute and include CRC
	withHash bool // Whether to include the value hash
	seqs     map[uint64]uint64
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCRC adds a CRC-32 of the payload to every frame.
func WithCRC() WriterOption {
	return func(w *Writer) {
		w.withCRC = true
	}
}

// WithHash adds the SHA-256 of the encoded value to every value frame.
func WithHash() WriterOption {
	return func(w *Writer) {
		w.withHash = true
	}
}

// NewWriter creates a new frame writer.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	writer := &Writer{w: w, seqs: make(map[uint64]uint64)}
	for _, opt := range opts {
		opt(writer)
	}
	return writer
}

// WriteFrame writes a single frame as is.
//
// Format:
//
//	@frame{v=1 sid=N seq=N kind=K len=N [crc=X] [hash=sha256:X] [final=true]}\n
//	<payload bytes>\n
func (w *Writer) WriteFrame(f *Frame) error {
	var header strings.Builder
	header.WriteString("@frame{")

	// Required fields
	header.WriteString("v=")
	if f.Version == 0 {
		header.WriteByte('1')
	} else {
		header.WriteString(strconv.Itoa(int(f.Version)))
	}

	header.WriteString(" sid=")
	header.WriteString(strconv.FormatUint(f.SID, 10))

	header.WriteString(" seq=")
	header.WriteString(strconv.FormatUint(f.Seq, 10))

	header.WriteString(" kind=")
	header.WriteString(f.Kind.String())

	header.WriteString(" len=")
	header.WriteString(strconv.Itoa(len(f.Payload)))

	// Optional CRC
	crc := f.CRC
	if crc == nil && w.withCRC && len(f.Payload) > 0 {
		computed := ComputeCRC(f.Payload)
		crc = &computed
	}
	if crc != nil {
		fmt.Fprintf(&header, " crc=%08x", *crc)
	}

	// Optional value hash
	if f.Hash != nil {
		header.WriteString(" hash=sha256:")
		header.WriteString(HashToHex(*f.Hash))
	}

	if f.Final {
		header.WriteString(" final=true")
	}

	header.WriteString("}\n")

	if _, err := io.WriteString(w.w, header.String()); err != nil {
		return fmt.Errorf("stream: write header: %w", err)
	}
	if len(f.Payload) > 0 {
		if _, err := w.w.Write(f.Payload); err != nil {
			return fmt.Errorf("stream: write payload: %w", err)
		}
	}
	if _, err := io.WriteString(w.w, "\n"); err != nil {
		return fmt.Errorf("stream: write trailing newline: %w", err)
	}
	return nil
}

// WriteValue encodes v and writes it on stream sid with the next sequence
// number. The kind follows v's type (see KindFor). Nothing is written when v
// cannot be encoded.
func (w *Writer) WriteValue(sid uint64, v flex.Value) error {
	return w.writeValue(sid, v, false)
}

// WriteFinal is WriteValue that also marks the end of stream sid.
func (w *Writer) WriteFinal(sid uint64, v flex.Value) error {
	return w.writeValue(sid, v, true)
}

func (w *Writer) writeValue(sid uint64, v flex.Value, final bool) error {
	payload, err := flex.Encode(v)
	if err != nil {
		return fmt.Errorf("stream: sid=%d: %w", sid, err)
	}
	f := &Frame{
		Version: Version,
		SID:     sid,
		Seq:     w.nextSeq(sid),
		Kind:    KindFor(v.Type()),
		Payload: payload,
		Final:   final,
	}
	if w.withHash {
		h := HashBytes(payload)
		f.Hash = &h
	}
	return w.WriteFrame(f)
}

// WriteError writes an err frame reporting a failure on frame (sid, seq).
func (w *Writer) WriteError(sid, seq uint64, code, msg string) error {
	payload, err := flex.Encode(ErrorValue(code, msg, sid, seq))
	if err != nil {
		return fmt.Errorf("stream: error event: %w", err)
	}
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     w.nextSeq(sid),
		Kind:    KindErr,
		Payload: payload,
	})
}

// WriteAck writes an acknowledgement of frame (sid, seq).
func (w *Writer) WriteAck(sid, seq uint64) error {
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    KindAck,
	})
}

func (w *Writer) nextSeq(sid uint64) uint64 {
	w.seqs[sid]++
	return w.seqs[sid]
}
