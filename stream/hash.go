package stream

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/crc32"

	"github.com/Neumenon/flexjson/flex"
)

var crcTable = crc32.MakeTable(crc32.IEEE)

// ComputeCRC computes the IEEE CRC-32 of a frame payload.
func ComputeCRC(payload []byte) uint32 {
	return crc32.Checksum(payload, crcTable)
}

// VerifyCRC checks the payload against the recorded CRC. A frame without a
// CRC always passes.
func (f *Frame) VerifyCRC() error {
	if f.CRC == nil {
		return nil
	}
	if got := ComputeCRC(f.Payload); got != *f.CRC {
		return &CRCMismatchError{Expected: *f.CRC, Got: got}
	}
	return nil
}

// ValueHash computes sha256(flex.Encode(v)). Encoding is deterministic, so
// equal values hash equally on both ends of a stream.
func ValueHash(v flex.Value) ([32]byte, error) {
	b, err := flex.Encode(v)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(b), nil
}

// HashBytes computes SHA-256 of an already encoded payload.
func HashBytes(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// HashToHex converts a 32-byte hash to lowercase hex.
func HashToHex(h [32]byte) string {
	return hex.EncodeToString(h[:])
}

// HexToHash parses 64 hex digits (either case) into a hash.
func HexToHash(s string) ([32]byte, bool) {
	var h [32]byte
	if len(s) != hex.EncodedLen(len(h)) {
		return h, false
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, false
	}
	return h, true
}
