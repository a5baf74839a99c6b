package stream

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/Neumenon/flexjson/flex"
)

// SeqError reports a sequence number that is not the successor of the last
// one seen on a stream.
type SeqError struct {
	SID      uint64
	Expected uint64
	Got      uint64
}

func (e *SeqError) Error() string {
	if e.Got < e.Expected {
		return fmt.Sprintf("stream: sid=%d sequence not monotonic: got %d, expected %d", e.SID, e.Got, e.Expected)
	}
	return fmt.Sprintf("stream: sid=%d sequence gap: expected %d, got %d", e.SID, e.Expected, e.Got)
}

// ErrStreamClosed is returned for frames that arrive after a final frame.
var ErrStreamClosed = errors.New("stream: frame after final")

// Cursor tracks per-SID state for stream processing.
// The SID map is safe for concurrent use; each StreamState is owned by the
// goroutine that processes its stream.
type Cursor struct {
	mu      sync.RWMutex
	streams map[uint64]*StreamState
}

// StreamState holds state for a single stream ID.
type StreamState struct {
	SID       uint64
	LastSeq   uint64     // Last sequence number seen
	LastAcked uint64     // Last sequence number acknowledged
	Last      flex.Value // Last decoded value
	HasLast   bool       // Whether Last is valid
	Final     bool       // Whether stream has ended
}

// NewCursor creates a new stream cursor.
func NewCursor() *Cursor {
	return &Cursor{
		streams: make(map[uint64]*StreamState),
	}
}

// Get returns the state for a SID, creating it if needed.
func (c *Cursor) Get(sid uint64) *StreamState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.streams[sid]
	if !ok {
		state = &StreamState{SID: sid}
		c.streams[sid] = state
	}
	return state
}

// GetReadOnly returns the state for a SID without creating it.
func (c *Cursor) GetReadOnly(sid uint64) *StreamState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.streams[sid]
}

// Delete removes state for a SID.
func (c *Cursor) Delete(sid uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.streams, sid)
}

// AllSIDs returns all tracked SIDs in ascending order.
func (c *Cursor) AllSIDs() []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sids := make([]uint64, 0, len(c.streams))
	for sid := range c.streams {
		sids = append(sids, sid)
	}
	sort.Slice(sids, func(i, j int) bool { return sids[i] < sids[j] })
	return sids
}

// ProcessFrame checks ordering and updates cursor state.
// Returns an error if:
//   - Sequence number is not the successor of the last one (gap or duplicate)
//   - The stream already ended
//
// Ack frames acknowledge Seq and do not advance the sequence.
func (c *Cursor) ProcessFrame(frame *Frame) error {
	state := c.Get(frame.SID)

	if frame.Kind == KindAck {
		c.Ack(frame.SID, frame.Seq)
		return nil
	}
	if state.Final {
		return fmt.Errorf("%w: sid=%d seq=%d", ErrStreamClosed, frame.SID, frame.Seq)
	}
	if frame.Seq != state.LastSeq+1 {
		return &SeqError{SID: frame.SID, Expected: state.LastSeq + 1, Got: frame.Seq}
	}

	state.LastSeq = frame.Seq
	if frame.Final {
		state.Final = true
	}
	return nil
}

// Ack marks a sequence as acknowledged.
func (c *Cursor) Ack(sid, seq uint64) {
	state := c.Get(sid)
	if seq > state.LastAcked {
		state.LastAcked = seq
	}
}

// PendingAcks returns sequences that have been seen but not acked.
func (c *Cursor) PendingAcks(sid uint64) []uint64 {
	state := c.GetReadOnly(sid)
	if state == nil || state.LastSeq <= state.LastAcked {
		return nil
	}

	pending := make([]uint64, 0, state.LastSeq-state.LastAcked)
	for seq := state.LastAcked + 1; seq <= state.LastSeq; seq++ {
		pending = append(pending, seq)
	}
	return pending
}

// ============================================================
// Frame Handler - functional processing helper
// ============================================================

// FrameHandler decodes frames and dispatches them with state tracking.
type FrameHandler struct {
	Cursor *Cursor

	// Callbacks (optional)
	OnValue func(sid, seq uint64, v flex.Value, state *StreamState) error
	OnErr   func(sid, seq uint64, remote *RemoteError, state *StreamState) error
	OnAck   func(sid, seq uint64, state *StreamState) error
	OnFinal func(sid uint64, state *StreamState) error

	// OnSeqGap is called when frames are missing. Returning nil accepts the
	// frame and resumes from its sequence number.
	OnSeqGap func(sid uint64, expected, got uint64) error
}

// NewFrameHandler creates a handler with default cursor.
func NewFrameHandler() *FrameHandler {
	return &FrameHandler{
		Cursor: NewCursor(),
	}
}

// Handle decodes a frame and calls the appropriate callback.
// Duplicate and stale frames are skipped.
func (h *FrameHandler) Handle(frame *Frame) error {
	state := h.Cursor.Get(frame.SID)

	if frame.Kind == KindAck {
		h.Cursor.Ack(frame.SID, frame.Seq)
		if h.OnAck != nil {
			return h.OnAck(frame.SID, frame.Seq, state)
		}
		return nil
	}

	if frame.Seq <= state.LastSeq {
		return nil
	}
	if state.Final {
		return fmt.Errorf("%w: sid=%d seq=%d", ErrStreamClosed, frame.SID, frame.Seq)
	}
	if frame.Seq != state.LastSeq+1 {
		if h.OnSeqGap == nil {
			return &SeqError{SID: frame.SID, Expected: state.LastSeq + 1, Got: frame.Seq}
		}
		if err := h.OnSeqGap(frame.SID, state.LastSeq+1, frame.Seq); err != nil {
			return err
		}
	}

	v, err := frame.Decode()
	var remote *RemoteError
	switch {
	case errors.As(err, &remote):
		state.LastSeq = frame.Seq
		if h.OnErr != nil {
			err = h.OnErr(frame.SID, frame.Seq, remote, state)
		} else {
			err = remote
		}
	case err != nil:
		return err
	default:
		state.LastSeq = frame.Seq
		state.Last = v
		state.HasLast = true
		if h.OnValue != nil {
			err = h.OnValue(frame.SID, frame.Seq, v, state)
		}
	}
	if err != nil {
		return err
	}

	if frame.Final {
		state.Final = true
		if h.OnFinal != nil {
			return h.OnFinal(frame.SID, state)
		}
	}
	return nil
}

// Run reads frames from r until EOF and handles each one.
func (h *FrameHandler) Run(r *Reader) error {
	for {
		frame, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := h.Handle(frame); err != nil {
			return err
		}
	}
}
