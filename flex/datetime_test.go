package flex

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"
)

func TestDateTime_WireVectors(t *testing.T) {
	wall := time.Date(2016, 3, 5, 0, 0, 0, 0, time.UTC)

	arizona, err := time.LoadLocation("America/Phoenix")
	if err != nil {
		t.Fatalf("LoadLocation failed: %v", err)
	}

	utc, err := DateTimeFromTime(wall)
	if err != nil {
		t.Fatalf("DateTimeFromTime(utc) failed: %v", err)
	}
	az, err := DateTimeFromTime(time.Date(2016, 3, 5, 0, 0, 0, 0, arizona))
	if err != nil {
		t.Fatalf("DateTimeFromTime(arizona) failed: %v", err)
	}

	tests := []struct {
		name string
		dt   DateTime
		want string
	}{
		{"naive", NaiveDateTime(wall), "[1457136000,null,0]"},
		{"naive_from_zoned_wall_clock", NaiveDateTime(time.Date(2016, 3, 5, 0, 0, 0, 0, arizona)), "[1457136000,null,0]"},
		{"utc", utc, "[1457136000,0,0]"},
		{"arizona", az, "[1457161200,-28,0]"},
		{"zero", DateTime{}, "[0,null,0]"},
		{"fields", DateTime{EpochSeconds: 1, OffsetQuarterHours: 2, HasOffset: true, Microseconds: 3}, "[1,2,3]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeDateTime(tt.dt)
			if err != nil {
				t.Fatalf("EncodeDateTime failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}

			// Same bytes through the generic encoder.
			generic, err := Encode(DateTimeValue(tt.dt))
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if string(generic) != tt.want {
				t.Errorf("Encode got %s, want %s", generic, tt.want)
			}

			back, err := DecodeDateTime(got)
			if err != nil {
				t.Fatalf("DecodeDateTime failed: %v", err)
			}
			if back != tt.dt {
				t.Errorf("DecodeDateTime = %+v, want %+v", back, tt.dt)
			}
		})
	}
}

func TestDateTime_NonHourOffset(t *testing.T) {
	// India is UTC+5:30, Nepal UTC+5:45.
	ist := time.FixedZone("IST", 5*3600+30*60)
	dt, err := DateTimeFromTime(time.Date(2020, 1, 1, 12, 0, 0, 250000000, ist))
	if err != nil {
		t.Fatalf("DateTimeFromTime failed: %v", err)
	}
	if off, ok := dt.Offset(); !ok || off != 22 {
		t.Errorf("offset = %d/%v, want 22", off, ok)
	}
	if dt.Microseconds != 250000 {
		t.Errorf("microseconds = %d, want 250000", dt.Microseconds)
	}

	npt := time.FixedZone("NPT", 5*3600+45*60)
	dt, err = DateTimeFromTime(time.Date(2020, 1, 1, 12, 0, 0, 0, npt))
	if err != nil {
		t.Fatalf("DateTimeFromTime failed: %v", err)
	}
	if dt.OffsetQuarterHours != 23 {
		t.Errorf("offset = %d, want 23", dt.OffsetQuarterHours)
	}
}

func TestDateTime_RejectsOddOffset(t *testing.T) {
	odd := time.FixedZone("ODD", 10*60)
	_, err := DateTimeFromTime(time.Date(2020, 1, 1, 0, 0, 0, 0, odd))
	if !errors.Is(err, ErrInvalidDateTime) {
		t.Errorf("expected ErrInvalidDateTime, got %v", err)
	}
}

func TestDateTime_Time(t *testing.T) {
	dt := DateTime{EpochSeconds: 1457161200, OffsetQuarterHours: -28, HasOffset: true, Microseconds: 5}
	tm := dt.Time()
	if tm.Unix() != 1457161200 {
		t.Errorf("Unix() = %d", tm.Unix())
	}
	if _, off := tm.Zone(); off != -7*3600 {
		t.Errorf("zone offset = %d", off)
	}
	if tm.Hour() != 0 || tm.Day() != 5 {
		t.Errorf("wall clock = %v", tm)
	}
	if tm.Nanosecond() != 5000 {
		t.Errorf("nanos = %d", tm.Nanosecond())
	}

	naive := DateTime{EpochSeconds: 1457136000}
	if naive.Time().Location() != time.UTC {
		t.Errorf("naive datetime should be UTC")
	}
}

func TestDateTime_EncodeRejectsOutOfRange(t *testing.T) {
	bad := []DateTime{
		{Microseconds: -1},
		{Microseconds: 1000000},
		{OffsetQuarterHours: 49, HasOffset: true},
		{OffsetQuarterHours: -49, HasOffset: true},
		{EpochSeconds: MaxEpochSeconds + 1},
	}
	for _, dt := range bad {
		_, err := EncodeDateTime(dt)
		var encErr *EncodingError
		if !errors.As(err, &encErr) {
			t.Errorf("EncodeDateTime(%+v) error = %v, want EncodingError", dt, err)
			continue
		}
		if !errors.Is(err, ErrInvalidDateTime) {
			t.Errorf("EncodeDateTime(%+v) should wrap ErrInvalidDateTime", dt)
		}
	}

	// Offset is ignored when absent.
	if _, err := EncodeDateTime(DateTime{OffsetQuarterHours: 99}); err != nil {
		t.Errorf("naive datetime with stray offset should encode: %v", err)
	}
}

func TestDecodeDateTime_Invalid(t *testing.T) {
	tests := []struct {
		input    string
		typeErr  bool
		rangeErr bool
	}{
		{`[1,2]`, true, false},
		{`[1,2,3,4]`, true, false},
		{`[1.0,null,0]`, true, false},
		{`[1,"x",0]`, true, false},
		{`[1,1.5,0]`, true, false},
		{`[1,null,0.0]`, true, false},
		{`{"a":1}`, true, false},
		{`[1,null,1000000]`, false, true},
		{`[1,null,-1]`, false, true},
		{`[1,100,0]`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := DecodeDateTime([]byte(tt.input))
			if err == nil {
				t.Fatalf("expected error")
			}
			var typeErr *TypeError
			if tt.typeErr && !errors.As(err, &typeErr) {
				t.Errorf("expected TypeError, got %v", err)
			}
			if tt.rangeErr && !errors.Is(err, ErrInvalidDateTime) {
				t.Errorf("expected ErrInvalidDateTime, got %v", err)
			}
		})
	}

	var parseErr *ParseError
	if _, err := DecodeDateTime([]byte(`[1,null`)); !errors.As(err, &parseErr) {
		t.Errorf("expected ParseError, got %v", err)
	}
}

func TestDecodeDateTime_OffsetNotReapplied(t *testing.T) {
	dt, err := DecodeDateTime([]byte(`[1457161200,-28,0]`))
	if err != nil {
		t.Fatalf("DecodeDateTime failed: %v", err)
	}
	if dt.EpochSeconds != 1457161200 {
		t.Errorf("epoch changed to %d", dt.EpochSeconds)
	}
}
