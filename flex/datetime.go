package flex

import (
	"fmt"
	"time"
)

// DateTime ranges. The offset is counted in quarter hours (15 minutes).
const (
	MinOffsetQuarterHours = -12 * 4
	MaxOffsetQuarterHours = 12 * 4
	MaxMicroseconds       = 999999
	MinEpochSeconds       = -(1 << 55)
	MaxEpochSeconds       = 1<<55 - 1

	quarterHourSeconds = 15 * 60
)

// DateTime is an absolute instant with an optional display offset.
//
// EpochSeconds always denotes the true UTC instant. When HasOffset is false the
// value is timezone-naive: its wall-clock fields were read as UTC to compute
// EpochSeconds. The offset is metadata only; it is never added to EpochSeconds.
type DateTime struct {
	EpochSeconds       int64
	OffsetQuarterHours int32
	HasOffset          bool
	Microseconds       int32
}

// NewDateTime builds a zoned DateTime and validates it.
func NewDateTime(epochSeconds int64, offsetQuarterHours int32, microseconds int32) (DateTime, error) {
	dt := DateTime{
		EpochSeconds:       epochSeconds,
		OffsetQuarterHours: offsetQuarterHours,
		HasOffset:          true,
		Microseconds:       microseconds,
	}
	return dt, dt.Validate()
}

// NewNaiveDateTime builds a timezone-naive DateTime and validates it.
func NewNaiveDateTime(epochSeconds int64, microseconds int32) (DateTime, error) {
	dt := DateTime{EpochSeconds: epochSeconds, Microseconds: microseconds}
	return dt, dt.Validate()
}

// DateTimeFromTime converts t keeping its zone offset, which must be a whole
// number of quarter hours within ±12h.
func DateTimeFromTime(t time.Time) (DateTime, error) {
	_, offset := t.Zone()
	if offset%quarterHourSeconds != 0 {
		return DateTime{}, fmt.Errorf("%w: offset %ds is not a multiple of 15 minutes", ErrInvalidDateTime, offset)
	}
	return NewDateTime(t.Unix(), int32(offset/quarterHourSeconds), int32(t.Nanosecond()/1000))
}

// NaiveDateTime reads the wall-clock fields of t as if they were UTC and
// drops the zone. This is a convention, not a lookup of any system timezone.
func NaiveDateTime(t time.Time) DateTime {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return DateTime{EpochSeconds: wall.Unix(), Microseconds: int32(wall.Nanosecond() / 1000)}
}

// Offset returns the offset in quarter hours and whether one is present.
func (dt DateTime) Offset() (int32, bool) {
	return dt.OffsetQuarterHours, dt.HasOffset
}

// Validate checks field ranges.
func (dt DateTime) Validate() error {
	if dt.Microseconds < 0 || dt.Microseconds > MaxMicroseconds {
		return fmt.Errorf("%w: microseconds %d not in [0, %d]", ErrInvalidDateTime, dt.Microseconds, MaxMicroseconds)
	}
	if dt.HasOffset && (dt.OffsetQuarterHours < MinOffsetQuarterHours || dt.OffsetQuarterHours > MaxOffsetQuarterHours) {
		return fmt.Errorf("%w: offset %d not in [%d, %d] quarter hours",
			ErrInvalidDateTime, dt.OffsetQuarterHours, MinOffsetQuarterHours, MaxOffsetQuarterHours)
	}
	if dt.EpochSeconds < MinEpochSeconds || dt.EpochSeconds > MaxEpochSeconds {
		return fmt.Errorf("%w: epoch seconds %d out of range", ErrInvalidDateTime, dt.EpochSeconds)
	}
	return nil
}

// Time returns the instant in a fixed zone of the offset, or in UTC when naive.
func (dt DateTime) Time() time.Time {
	t := time.Unix(dt.EpochSeconds, int64(dt.Microseconds)*1000).UTC()
	if !dt.HasOffset {
		return t
	}
	secs := int(dt.OffsetQuarterHours) * quarterHourSeconds
	return t.In(time.FixedZone(zoneName(secs), secs))
}

func zoneName(secs int) string {
	sign := '+'
	if secs < 0 {
		sign = '-'
		secs = -secs
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, secs/3600, secs/60%60)
}

// ============================================================
// Wire form: [epoch_seconds, offset|null, microseconds]
// ============================================================

// EncodeDateTime renders dt as its 3-element JSON array.
func EncodeDateTime(dt DateTime) ([]byte, error) {
	if err := dt.Validate(); err != nil {
		return nil, &EncodingError{Path: "$", Type: TypeDateTime, Err: err}
	}
	return appendDateTime(nil, dt), nil
}

func appendDateTime(dst []byte, dt DateTime) []byte {
	dst = append(dst, '[')
	dst = AppendInt(dst, dt.EpochSeconds)
	dst = append(dst, ',')
	if dt.HasOffset {
		dst = AppendInt(dst, int64(dt.OffsetQuarterHours))
	} else {
		dst = append(dst, "null"...)
	}
	dst = append(dst, ',')
	dst = AppendInt(dst, int64(dt.Microseconds))
	return append(dst, ']')
}

// DecodeDateTime parses JSON text holding a 3-element datetime array. The
// generic decoder never produces a DateTime on its own; callers that expect
// one use this entry point.
func DecodeDateTime(data []byte) (DateTime, error) {
	v, err := Decode(data)
	if err != nil {
		return DateTime{}, err
	}
	return DateTimeFromList(v)
}

// DateTimeFromList converts a decoded [Integer, Integer|Undefined, Integer]
// list into a DateTime.
func DateTimeFromList(v Value) (DateTime, error) {
	return dateTimeFromList(v, "$")
}

func dateTimeFromList(v Value, path string) (DateTime, error) {
	if v.typ == TypeDateTime {
		return v.dtVal, nil
	}
	if v.typ != TypeList {
		return DateTime{}, &TypeError{Path: path, Want: TypeDateTime, Got: v.typ}
	}
	if len(v.listVal) != 3 {
		return DateTime{}, &TypeError{Path: path, Want: TypeDateTime, Got: v.typ,
			Reason: fmt.Sprintf("want 3 elements, got %d", len(v.listVal))}
	}
	epoch, off, micros := v.listVal[0], v.listVal[1], v.listVal[2]
	if epoch.typ != TypeInteger {
		return DateTime{}, &TypeError{Path: indexPath(path, 0), Want: TypeInteger, Got: epoch.typ}
	}
	if off.typ != TypeInteger && off.typ != TypeUndefined {
		return DateTime{}, &TypeError{Path: indexPath(path, 1), Want: TypeInteger, Got: off.typ,
			Reason: "offset must be an integer or null"}
	}
	if micros.typ != TypeInteger {
		return DateTime{}, &TypeError{Path: indexPath(path, 2), Want: TypeInteger, Got: micros.typ}
	}
	if micros.intVal < 0 || micros.intVal > MaxMicroseconds {
		return DateTime{}, fmt.Errorf("%w: microseconds %d not in [0, %d]", ErrInvalidDateTime, micros.intVal, MaxMicroseconds)
	}

	dt := DateTime{EpochSeconds: epoch.intVal, Microseconds: int32(micros.intVal)}
	if off.typ == TypeInteger {
		if off.intVal < MinOffsetQuarterHours || off.intVal > MaxOffsetQuarterHours {
			return DateTime{}, fmt.Errorf("%w: offset %d not in [%d, %d] quarter hours",
				ErrInvalidDateTime, off.intVal, MinOffsetQuarterHours, MaxOffsetQuarterHours)
		}
		dt.OffsetQuarterHours = int32(off.intVal)
		dt.HasOffset = true
	}
	if err := dt.Validate(); err != nil {
		return DateTime{}, err
	}
	return dt, nil
}
