package palette

import (
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Policy
	}{
		{"BW", BW},
		{"hsv", HSV},
		{"MIX", Mix},
		{"inf", Inferno},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := Parse("CMYK"); err == nil {
		t.Error("expected error for unknown colour")
	}
}

func TestEveryGradientPolicyHasTable(t *testing.T) {
	for _, p := range All() {
		g := GradientFor(p)
		if p.IsGradient() && g == nil {
			t.Errorf("%s: missing gradient table", p)
		}
		if !p.IsGradient() && g != nil {
			t.Errorf("%s: unexpected gradient table", p)
		}
	}
}

func TestGradientAt(t *testing.T) {
	g, err := NewGradient("#000000", "#ffffff")
	if err != nil {
		t.Fatal(err)
	}

	r, gg, b := g.At(0)
	if r != 0 || gg != 0 || b != 0 {
		t.Errorf("At(0) = %v %v %v, want black", r, gg, b)
	}
	r, _, _ = g.At(1)
	if math.Abs(r-1) > 1e-9 {
		t.Errorf("At(1) red = %v, want 1", r)
	}
	r, _, _ = g.At(0.5)
	if math.Abs(r-0.5) > 1e-9 {
		t.Errorf("At(0.5) red = %v, want 0.5 in linear light", r)
	}
	r, _, _ = g.At(7)
	if math.Abs(r-1) > 1e-9 {
		t.Errorf("At(7) should clamp, got %v", r)
	}
}

func TestNewGradientErrors(t *testing.T) {
	if _, err := NewGradient("#000000"); err == nil {
		t.Error("expected error for a single stop")
	}
	if _, err := NewGradient("#000000", "nothex"); err == nil {
		t.Error("expected error for a bad stop")
	}
}

func TestChannels(t *testing.T) {
	if HSV.Channels() != Direction || HSL.Channels() != Direction {
		t.Error("HSV/HSL should accumulate direction")
	}
	if RGB.Channels() != Sign {
		t.Error("RGB should accumulate sign channels")
	}
	if Mix.Channels() != Triaxial {
		t.Error("MIX should accumulate three projections")
	}
	if Viridis.Channels() != Density || BW.Channels() != Density {
		t.Error("gradients and BW only count hits")
	}
}
