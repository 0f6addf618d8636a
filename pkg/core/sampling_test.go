package core

import (
	"math"
	"testing"
)

func TestScheme_DirectionsAreUnit(t *testing.T) {
	sampler := NewIndexedSampler(42)
	for _, scheme := range []Scheme{SchemeBiasedPolar, SchemeUniformSphere} {
		t.Run(string(scheme), func(t *testing.T) {
			for i := uint64(0); i < 1000; i++ {
				sampler.Reset(i)
				d := scheme.Direction(sampler.Get2D())
				if math.Abs(d.Length()-1) > 1e-9 {
					t.Fatalf("Direction %v has length %f", d, d.Length())
				}
			}
		})
	}
}

// The biased scheme puts far more samples near the poles than the uniform one.
func TestScheme_PolarBias(t *testing.T) {
	const n = 20000
	polarFraction := func(scheme Scheme) float64 {
		sampler := NewIndexedSampler(7)
		count := 0
		for i := uint64(0); i < n; i++ {
			sampler.Reset(i)
			if math.Abs(scheme.Direction(sampler.Get2D()).Z) > 0.9 {
				count++
			}
		}
		return float64(count) / n
	}

	uniform := polarFraction(SchemeUniformSphere)
	biased := polarFraction(SchemeBiasedPolar)

	// Uniform: P(|z|>0.9) = 0.1. Biased: P(|cos θ|>0.9) = 2·acos(0.9)/π ≈ 0.287.
	if math.Abs(uniform-0.1) > 0.02 {
		t.Errorf("Expected uniform polar fraction ≈ 0.1, got %f", uniform)
	}
	if math.Abs(biased-0.287) > 0.02 {
		t.Errorf("Expected biased polar fraction ≈ 0.287, got %f", biased)
	}
}

func TestIndexedSampler_Reproducible(t *testing.T) {
	a := NewIndexedSampler(99)
	b := NewIndexedSampler(99)

	a.Reset(5)
	first := a.Get2D()
	a.Reset(6)
	a.Get2D()

	b.Reset(5)
	if got := b.Get2D(); got != first {
		t.Errorf("Expected %v for index 5, got %v", first, got)
	}
	a.Reset(5)
	if got := a.Get2D(); got != first {
		t.Errorf("Expected reset to replay index 5, got %v", got)
	}
}

func TestParseScheme(t *testing.T) {
	tests := []struct {
		input    string
		expected Scheme
		wantErr  bool
	}{
		{"biased-polar", SchemeBiasedPolar, false},
		{"uniform-sphere", SchemeUniformSphere, false},
		{"", SchemeBiasedPolar, false},
		{"cosine", "", true},
	}
	for _, tt := range tests {
		got, err := ParseScheme(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseScheme(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.expected {
			t.Errorf("ParseScheme(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
