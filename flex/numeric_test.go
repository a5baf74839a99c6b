package flex

import (
	"math"
	"testing"
)

// ============================================================
// Formatter Tests
// ============================================================

func TestFormatInt(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{-2147483649, "-2147483649"},
		{2147483648, "2147483648"},
		{1 << 53, "9007199254740992"},
		{1<<53 + 1, "9007199254740993"},
		{math.MaxInt64, "9223372036854775807"},
		{math.MinInt64, "-9223372036854775808"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatInt(tt.in); got != tt.want {
				t.Errorf("FormatInt(%d) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"zero", 0.0, "0.0"},
		{"neg_zero", math.Copysign(0, -1), "-0.0"},
		{"one", 1.0, "1.0"},
		{"neg_one", -1.0, "-1.0"},
		{"one_point_one", 1.1, "1.1"},
		{"neg_one_point_one", -1.1, "-1.1"},
		{"half", 1.5, "1.5"},
		{"large_integral", 1e20, "100000000000000000000.0"},
		{"exp_large", 1e21, "1.0e+21"},
		{"exp_large_frac", 1.5e300, "1.5e+300"},
		{"small", 1e-6, "0.000001"},
		{"exp_small", 1e-7, "1.0e-7"},
		{"denormal", 5e-324, "5.0e-324"},
		{"max", math.MaxFloat64, "1.7976931348623157e+308"},
		{"nan", math.NaN(), `"NaN"`},
		{"inf", math.Inf(1), `"Infinity"`},
		{"neg_inf", math.Inf(-1), `"-Infinity"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatFloat(tt.in); got != tt.want {
				t.Errorf("FormatFloat(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatFloat_AlwaysFloatLexeme(t *testing.T) {
	values := []float64{0, 1, -1, 3, 100, 1e15, 1e20, 1e21, 1e22, 1e-7, 123456789, 0.1, 2.5e-10}
	for _, f := range values {
		s := FormatFloat(f)
		_, isFloat, ok := scanNumber(s, 0)
		if !ok || !isFloat {
			t.Errorf("FormatFloat(%v) = %q is not a float lexeme", f, s)
		}
	}
}

func TestFormatFloat_RoundTripBits(t *testing.T) {
	values := []float64{
		0, math.Copysign(0, -1), 0.1, 0.2, 0.30000000000000004, 1.0 / 3.0,
		math.Pi, math.E, math.MaxFloat64, math.SmallestNonzeroFloat64,
		-math.MaxFloat64, 1e21, 1e-7, 123456.789e10, 9007199254740993,
	}
	for _, f := range values {
		s := FormatFloat(f)
		got, err := ParseFloat(s)
		if err != nil {
			t.Fatalf("ParseFloat(%q) failed: %v", s, err)
		}
		if math.Float64bits(got) != math.Float64bits(f) {
			t.Errorf("round trip %v -> %q -> %v", f, s, got)
		}
	}
}

func TestAppendFloat_KeepsPrefix(t *testing.T) {
	dst := []byte("x=")
	got := string(AppendFloat(dst, 1e21))
	if got != "x=1.0e+21" {
		t.Errorf("got %q", got)
	}
}

// ============================================================
// Parser Tests
// ============================================================

func TestParseInt(t *testing.T) {
	valid := map[string]int64{
		"0":                    0,
		"-0":                   0,
		"42":                   42,
		"-9223372036854775808": math.MinInt64,
		"9223372036854775807":  math.MaxInt64,
	}
	for s, want := range valid {
		got, err := ParseInt(s)
		if err != nil {
			t.Errorf("ParseInt(%q) failed: %v", s, err)
			continue
		}
		if got != want {
			t.Errorf("ParseInt(%q) = %d, want %d", s, got, want)
		}
	}

	invalid := []string{"", "-", "01", "+1", "1.0", "1e3", " 1", "1 ", "0x10", "9223372036854775808"}
	for _, s := range invalid {
		if _, err := ParseInt(s); err == nil {
			t.Errorf("ParseInt(%q) should fail", s)
		}
	}
}

func TestParseFloat(t *testing.T) {
	got, err := ParseFloat("1.5")
	if err != nil || got != 1.5 {
		t.Errorf("ParseFloat(1.5) = %v, %v", got, err)
	}
	got, err = ParseFloat("2")
	if err != nil || got != 2 {
		t.Errorf("ParseFloat(2) = %v, %v", got, err)
	}

	got, err = ParseFloat(`"NaN"`)
	if err != nil || !math.IsNaN(got) {
		t.Errorf(`ParseFloat("NaN") = %v, %v`, got, err)
	}
	got, err = ParseFloat(`"Infinity"`)
	if err != nil || !math.IsInf(got, 1) {
		t.Errorf(`ParseFloat("Infinity") = %v, %v`, got, err)
	}
	got, err = ParseFloat(`"-Infinity"`)
	if err != nil || !math.IsInf(got, -1) {
		t.Errorf(`ParseFloat("-Infinity") = %v, %v`, got, err)
	}

	invalid := []string{"", "NaN", "inf", `"nan"`, `"Inf"`, ".5", "1.", "1e", "+1.0", "0x1p3", "1_0", "1e400"}
	for _, s := range invalid {
		if _, err := ParseFloat(s); err == nil {
			t.Errorf("ParseFloat(%q) should fail", s)
		}
	}
}

func TestSpecialFloat(t *testing.T) {
	if f, ok := SpecialFloat("NaN"); !ok || !math.IsNaN(f) {
		t.Errorf("NaN not recognized")
	}
	if _, ok := SpecialFloat("nan"); ok {
		t.Errorf("lowercase nan must not be special")
	}
	if _, ok := SpecialFloat(`"NaN"`); ok {
		t.Errorf("quoted token must not be special")
	}
}
