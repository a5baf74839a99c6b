package flex

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestFromAny(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Undefined()},
		{"true", true, Integer(1)},
		{"false", false, Integer(0)},
		{"int", 42, Integer(42)},
		{"int8", int8(-3), Integer(-3)},
		{"uint32", uint32(7), Integer(7)},
		{"uint64", uint64(math.MaxInt64), Integer(math.MaxInt64)},
		{"float32", float32(1.5), Float(1.5)},
		{"float64", 2.25, Float(2.25)},
		{"string", "hi", String("hi")},
		{"float64_slice", []float64{1, 2}, Vector(1, 2)},
		{"float32_slice", []float32{0.5}, Vector(0.5)},
		{"string_slice", []string{"a"}, List(String("a"))},
		{"any_slice", []any{1, "x", nil}, List(Integer(1), String("x"), Undefined())},
		{"map", map[string]any{"k": []any{1.0}}, Dict(map[string]Value{"k": List(Float(1))})},
		{"value", String("v"), String("v")},
		{"datetime", DateTime{EpochSeconds: 5}, DateTimeValue(DateTime{EpochSeconds: 5})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.in)
			if err != nil {
				t.Fatalf("FromAny failed: %v", err)
			}
			if !Equal(got, tt.want) {
				t.Errorf("got %s (%s), want %s (%s)", got, got.Type(), tt.want, tt.want.Type())
			}
		})
	}
}

func TestFromAny_Time(t *testing.T) {
	tz := time.FixedZone("", -7*3600)
	v, err := FromAny(time.Date(2016, 3, 5, 0, 0, 0, 0, tz))
	if err != nil {
		t.Fatalf("FromAny failed: %v", err)
	}
	if s := v.String(); s != "[1457161200,-28,0]" {
		t.Errorf("got %s", s)
	}
}

func TestFromAny_Errors(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		sentinel error
		path     string
	}{
		{"uint_overflow", uint64(math.MaxInt64) + 1, ErrIntegerRange, "$"},
		{"channel", make(chan int), ErrUnsupportedType, "$"},
		{"nested_struct", map[string]any{"k": []any{struct{}{}}}, ErrUnsupportedType, `$["k"][0]`},
		{"odd_offset", time.Date(2020, 1, 1, 0, 0, 0, 0, time.FixedZone("", 600)), ErrInvalidDateTime, "$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromAny(tt.in)
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("error %v does not wrap %v", err, tt.sentinel)
			}
			var encErr *EncodingError
			if !errors.As(err, &encErr) {
				t.Fatalf("expected *EncodingError, got %T", err)
			}
			if encErr.Path != tt.path {
				t.Errorf("path = %s, want %s", encErr.Path, tt.path)
			}
		})
	}
}

func TestToAny(t *testing.T) {
	v := Dict(map[string]Value{
		"i": Integer(1),
		"f": Float(1.5),
		"s": String("x"),
		"v": Vector(2),
		"l": List(Undefined()),
	})
	got, ok := ToAny(v).(map[string]any)
	if !ok {
		t.Fatalf("ToAny returned %T", ToAny(v))
	}
	if got["i"] != int64(1) || got["f"] != 1.5 || got["s"] != "x" {
		t.Errorf("scalars = %v", got)
	}
	if vec, ok := got["v"].([]float64); !ok || len(vec) != 1 || vec[0] != 2 {
		t.Errorf("vector = %#v", got["v"])
	}
	if l, ok := got["l"].([]any); !ok || len(l) != 1 || l[0] != nil {
		t.Errorf("list = %#v", got["l"])
	}

	tm, ok := ToAny(DateTimeValue(DateTime{EpochSeconds: 60, Microseconds: 1})).(time.Time)
	if !ok || tm.Unix() != 60 || tm.Nanosecond() != 1000 {
		t.Errorf("datetime = %v", tm)
	}
}

func TestValue_EncodingJSONInterop(t *testing.T) {
	type envelope struct {
		Name  string `json:"name"`
		Value Value  `json:"value"`
	}

	in := envelope{Name: "x", Value: List(Float(1), Integer(2), Float(math.NaN()))}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	if string(data) != `{"name":"x","value":[1.0,2,"NaN"]}` {
		t.Errorf("got %s", data)
	}

	var out envelope
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("json.Unmarshal failed: %v", err)
	}
	if !Equal(out.Value, in.Value) {
		t.Errorf("got %s, want %s", out.Value, in.Value)
	}
}
