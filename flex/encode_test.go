package flex

import (
	"errors"
	"math"
	"testing"
)

func TestEncode_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"undefined", Undefined(), "null"},
		{"zero_value", Value{}, "null"},
		{"int", Integer(-2147483649), "-2147483649"},
		{"int_max", Integer(math.MaxInt64), "9223372036854775807"},
		{"float", Float(-1.1), "-1.1"},
		{"float_integral", Float(1.0), "1.0"},
		{"float_zero", Float(0.0), "0.0"},
		{"nan", Float(math.NaN()), `"NaN"`},
		{"inf", Float(math.Inf(1)), `"Infinity"`},
		{"neg_inf", Float(math.Inf(-1)), `"-Infinity"`},
		{"string", String("hello"), `"hello"`},
		{"string_apostrophe", String("a'b"), `"a'b"`},
		{"string_quote", String("a\"b"), `"a\"b"`},
		{"string_backslash", String(`a\b`), `"a\\b"`},
		{"string_controls", String("\b\f\n\r\t\x00\x1f"), `"\b\f\n\r\t\u0000\u001F"`},
		{"string_unicode", String("héllo ✓ 😀"), `"héllo ✓ 😀"`},
		{"string_del", String("\x7f"), "\"\x7f\""},
		{"string_empty", String(""), `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeString(tt.value)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEncode_Containers(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"vector_empty", Vector(), "[]"},
		{"vector_one", Vector(1.5), "[1.5]"},
		{"vector_three", Vector(2.1, 2.5, 3.1), "[2.1,2.5,3.1]"},
		{"vector_integral", Vector(1, 2), "[1.0,2.0]"},
		{"vector_special", Vector(math.NaN(), math.Inf(-1)), `["NaN","-Infinity"]`},
		{"list_empty", List(), "[]"},
		{"list_ints", List(Integer(1), Integer(2)), "[1,2]"},
		{"list_mixed", List(String("hello"), Integer(3), Undefined()), `["hello",3,null]`},
		{"list_nested", List(List(), Vector(1), Dict(nil)), "[[],[1.0],{}]"},
		{"dict_empty", Dict(map[string]Value{}), "{}"},
		{"dict_nil", Dict(nil), "{}"},
		{"dict_sorted", Dict(map[string]Value{"y": Integer(2), "x": Integer(1)}), `{"x":1,"y":2}`},
		{"dict_escaped_key", Dict(map[string]Value{"a\"b": Float(1)}), `{"a\"b":1.0}`},
		{"dict_datetime", Dict(map[string]Value{"t": DateTimeValue(DateTime{EpochSeconds: 1})}), `{"t":[1,null,0]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeString(tt.value)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEncode_Deterministic(t *testing.T) {
	m := map[string]Value{}
	for _, k := range []string{"delta", "alpha", "charlie", "bravo", "echo", "foxtrot"} {
		m[k] = String(k)
	}
	d := Dict(m)
	first, err := EncodeString(d)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, _ := EncodeString(d)
		if again != first {
			t.Fatalf("non-deterministic output: %s vs %s", first, again)
		}
	}
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		sentinel error
		path     string
	}{
		{"image", ImageValue(Image{Width: 1, Height: 1, Channels: 3, Data: []byte{1, 2, 3}}), ErrUnsupportedType, "$"},
		{"invalid_utf8", String("a\xffb"), ErrInvalidUTF8, "$"},
		{"nested_image", List(Integer(1), List(ImageValue(Image{}))), ErrUnsupportedType, "$[1][0]"},
		{"dict_value", Dict(map[string]Value{"k": String("\xc3")}), ErrInvalidUTF8, `$["k"]`},
		{"dict_key", Dict(map[string]Value{"\xff": Integer(1)}), ErrInvalidUTF8, "$"},
		{"bad_datetime", List(DateTimeValue(DateTime{Microseconds: -5})), ErrInvalidDateTime, "$[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Encode(tt.value)
			if err == nil {
				t.Fatalf("expected error, got %s", out)
			}
			if out != nil {
				t.Errorf("partial output on error: %q", out)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("error %v does not wrap %v", err, tt.sentinel)
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

func TestAppendEncode_AllOrNothing(t *testing.T) {
	dst := []byte("prefix:")
	out, err := AppendEncode(dst, List(Integer(1), String("ok"), ImageValue(Image{})))
	if err == nil {
		t.Fatalf("expected error")
	}
	if string(out) != "prefix:" {
		t.Errorf("dst modified on error: %q", out)
	}

	out, err = AppendEncode(dst, List(Integer(1)))
	if err != nil {
		t.Fatalf("AppendEncode failed: %v", err)
	}
	if string(out) != "prefix:[1]" {
		t.Errorf("got %q", out)
	}
}

func TestQuote(t *testing.T) {
	got, err := Quote("tab\there")
	if err != nil || got != `"tab\there"` {
		t.Errorf("Quote = %q, %v", got, err)
	}
	if _, err := Quote("\xff"); !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestValue_String(t *testing.T) {
	if s := List(Integer(1), Float(2)).String(); s != "[1,2.0]" {
		t.Errorf("String() = %s", s)
	}
	if s := ImageValue(Image{}).String(); s != "<image>" {
		t.Errorf("String() = %s", s)
	}
}
