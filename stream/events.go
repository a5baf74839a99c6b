package stream

import (
	"fmt"
	"strings"

	"github.com/Neumenon/flexjson/flex"
)

// ============================================================
// Error Events
// ============================================================
//
// kind=err frames carry a Dict:
//
//	{"code":"DECODE_FAILED","msg":"flex: invalid number at offset 3","sid":1,"seq":42}
//
// sid and seq name the frame the remote side failed on.

// RemoteError is an error reported by the other end of a stream.
type RemoteError struct {
	Code    string
	Message string
	SID     uint64
	Seq     uint64
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("stream: remote error %s (sid=%d seq=%d): %s", e.Code, e.SID, e.Seq, e.Message)
}

// ErrorValue builds the payload value of an err frame. Invalid UTF-8 in code
// or msg is replaced so the event always encodes.
func ErrorValue(code, msg string, sid, seq uint64) flex.Value {
	return flex.Dict(map[string]flex.Value{
		"code": flex.String(strings.ToValidUTF8(code, "\uFFFD")),
		"msg":  flex.String(strings.ToValidUTF8(msg, "\uFFFD")),
		"sid":  flex.Integer(int64(sid)),
		"seq":  flex.Integer(int64(seq)),
	})
}

// parseRemoteError turns an err frame into a *RemoteError. A payload that is
// not a well-formed error event still yields a RemoteError carrying the raw
// text, so the remote failure is never lost.
func parseRemoteError(f *Frame) error {
	re := &RemoteError{Code: "UNKNOWN", Message: string(f.Payload), SID: f.SID, Seq: f.Seq}

	v, err := flex.Decode(f.Payload)
	if err != nil || v.Type() != flex.TypeDict {
		return re
	}
	if code, ok := v.Get("code"); ok {
		if s, err := code.AsString(); err == nil {
			re.Code = s
		}
	}
	if msg, ok := v.Get("msg"); ok {
		if s, err := msg.AsString(); err == nil {
			re.Message = s
		}
	}
	if sid, ok := v.Get("sid"); ok {
		if n, err := sid.AsInteger(); err == nil && n >= 0 {
			re.SID = uint64(n)
		}
	}
	if seq, ok := v.Get("seq"); ok {
		if n, err := seq.AsInteger(); err == nil && n >= 0 {
			re.Seq = uint64(n)
		}
	}
	return re
}
