package ffprobe

import "testing"

func TestParseRational(t *testing.T) {
	tests := []struct {
		in      string
		want    Rational
		wantErr bool
	}{
		{"24000/1001", Rational{24000, 1001}, false},
		{"25/1", Rational{25, 1}, false},
		{" 30/1 ", Rational{30, 1}, false},
		{"60", Rational{60, 1}, false},
		{"0/0", Rational{}, true},
		{"24/0", Rational{}, true},
		{"24/-1", Rational{}, true},
		{"23.976", Rational{}, true},
		{"24000/1001/2", Rational{}, true},
		{"__import__('os')", Rational{}, true},
		{"2*12/1", Rational{}, true},
		{"", Rational{}, true},
		{"/1", Rational{}, true},
	}
	for _, tt := range tests {
		got, err := ParseRational(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseRational(%q) expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseRational(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseRational(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRationalFormatting(t *testing.T) {
	r := Rational{Num: 24000, Den: 1001}
	if r.String() != "24000/1001" {
		t.Fatalf("unexpected string %q", r.String())
	}
	if f := r.Float64(); f < 23.97 || f > 23.98 {
		t.Fatalf("unexpected float %v", f)
	}
	if !(Rational{}).IsZero() {
		t.Fatal("expected zero value to be zero")
	}
}
