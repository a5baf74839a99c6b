package flex

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestDecode_Scalars(t *testing.T) {
	tests := []struct {
		input string
		want  Value
	}{
		{"null", Undefined()},
		{"0", Integer(0)},
		{"-0", Integer(0)},
		{"42", Integer(42)},
		{"-9223372036854775808", Integer(math.MinInt64)},
		{"9223372036854775807", Integer(math.MaxInt64)},
		{"1.0", Float(1)},
		{"-0.0", Float(math.Copysign(0, -1))},
		{"1e3", Float(1000)},
		{"2E-2", Float(0.02)},
		{"1.5", Float(1.5)},
		{`"hello"`, String("hello")},
		{`"NaN"`, Float(math.NaN())},
		{`"Infinity"`, Float(math.Inf(1))},
		{`"-Infinity"`, Float(math.Inf(-1))},
		{`"nan"`, String("nan")},
		{`"infinity"`, String("infinity")},
		{"true", Integer(1)},
		{"false", Integer(0)},
		{" \t\r\n 7 \n", Integer(7)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := DecodeString(tt.input)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !Equal(got, tt.want) {
				t.Errorf("got %s (%s), want %s (%s)", got, got.Type(), tt.want, tt.want.Type())
			}
		})
	}
}

func TestDecode_IntegerOverflowBecomesFloat(t *testing.T) {
	v, err := DecodeString("9223372036854775808")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v.Type() != TypeFloat {
		t.Fatalf("expected float, got %s", v.Type())
	}
	f, _ := v.AsFloat()
	if f != 9223372036854775808.0 {
		t.Errorf("got %v", f)
	}
}

func TestDecode_Strings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"a\"b"`, `a"b`},
		{`"a\\b"`, `a\b`},
		{`"\/"`, "/"},
		{`"\b\f\n\r\t"`, "\b\f\n\r\t"},
		{`"Aé"`, "Aé"},
		{`"😀"`, "😀"},
		{`"\ud83d"`, "\uFFFD"},
		{`"\ud800"`, "\uFFFD"},
		{`"\udc00"`, "\uFFFD"},
		{`"\ud800\u0041"`, "\uFFFDA"},
		{`"\ud800x"`, "\uFFFDx"},
		{`"\udc00\ud83d"`, "\uFFFD\uFFFD"},
		{`"héllo"`, "héllo"},
		{`"mixed A and é"`, "mixed A and é"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := DecodeString(tt.input)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			s, err := v.AsString()
			if err != nil {
				t.Fatalf("AsString failed: %v", err)
			}
			if s != tt.want {
				t.Errorf("got %q, want %q", s, tt.want)
			}
		})
	}
}

func TestDecode_Containers(t *testing.T) {
	v, err := DecodeString(`["hello", 3, null, [1.5, 2], {"k": "v"}]`)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := List(
		String("hello"),
		Integer(3),
		Undefined(),
		List(Float(1.5), Integer(2)),
		Dict(map[string]Value{"k": String("v")}),
	)
	if !Equal(v, want) {
		t.Errorf("got %s, want %s", v, want)
	}
}

func TestDecode_ArrayNeverDateTimeOrVector(t *testing.T) {
	v, err := DecodeString("[1457136000,null,0]")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v.Type() != TypeList {
		t.Errorf("expected list, got %s", v.Type())
	}

	v, err = DecodeString("[1.5,2.5]")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v.Type() != TypeList {
		t.Errorf("expected list, got %s", v.Type())
	}
}

func TestDecode_DuplicateKeysLastWins(t *testing.T) {
	v, err := DecodeString(`{"a":1,"a":2}`)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v.Len() != 1 {
		t.Fatalf("expected 1 key, got %d", v.Len())
	}
	a, _ := v.Get("a")
	if !Equal(a, Integer(2)) {
		t.Errorf("a = %s", a)
	}
}

func TestDecode_ParseErrors(t *testing.T) {
	tests := []struct {
		input  string
		offset int
	}{
		{"", 0},
		{"   ", 3},
		{"[1,2", 4},
		{"[1,,2]", 3},
		{"[1 2]", 3},
		{`{"a" 1}`, 5},
		{`{"a":1,}`, 7},
		{`{a:1}`, 1},
		{"tru", 0},
		{"nul", 0},
		{"01", 1},
		{"-", 1},
		{"1.", 2},
		{"1e+", 3},
		{"+1", 0},
		{"NaN", 0},
		{"Infinity", 0},
		{"[1]x", 3},
		{`"abc`, 4},
		{"\"a\x01b\"", 2},
		{`"\x"`, 1},
		{`"\u12"`, 1},
		{"\"ab\xffcd\"", 3},
		{"1e400", 0},
		{"[1] [2]", 4},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := DecodeString(tt.input)
			if err == nil {
				t.Fatalf("expected error")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T: %v", err, err)
			}
			if perr.Offset != tt.offset {
				t.Errorf("offset = %d, want %d (%s)", perr.Offset, tt.offset, perr.Message)
			}
		})
	}
}

func TestDecode_MaxDepth(t *testing.T) {
	ok := strings.Repeat("[", MaxDepth) + strings.Repeat("]", MaxDepth)
	if _, err := DecodeString(ok); err != nil {
		t.Fatalf("depth %d should decode: %v", MaxDepth, err)
	}

	deep := strings.Repeat("[", MaxDepth+1) + strings.Repeat("]", MaxDepth+1)
	_, err := DecodeString(deep)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if perr.Offset != MaxDepth {
		t.Errorf("offset = %d, want %d", perr.Offset, MaxDepth)
	}
}

func TestValue_UnmarshalJSON(t *testing.T) {
	var v Value
	if err := v.UnmarshalJSON([]byte(`{"x":[1,2.0]}`)); err != nil {
		t.Fatalf("UnmarshalJSON failed: %v", err)
	}
	want := Dict(map[string]Value{"x": List(Integer(1), Float(2))})
	if !Equal(v, want) {
		t.Errorf("got %s", v)
	}
}
