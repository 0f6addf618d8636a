package core

import (
	"errors"
	"math"
	"testing"
)

func TestVec3_Cross(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Vec3
		expected Vec3
	}{
		{"X cross Y", NewVec3(1, 0, 0), NewVec3(0, 1, 0), NewVec3(0, 0, 1)},
		{"Y cross Z", NewVec3(0, 1, 0), NewVec3(0, 0, 1), NewVec3(1, 0, 0)},
		{"Z cross X", NewVec3(0, 0, 1), NewVec3(1, 0, 0), NewVec3(0, 1, 0)},
		{"Parallel vectors", NewVec3(2, 2, 2), NewVec3(1, 1, 1), NewVec3(0, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.a.Cross(tt.b)
			if result.Subtract(tt.expected).Length() > 1e-12 {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestVec3_Norm(t *testing.T) {
	v, err := NewVec3(3, 0, 4).Norm()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(v.Length()-1) > 1e-12 {
		t.Errorf("Expected unit length, got %f", v.Length())
	}
	if math.Abs(v.X-0.6) > 1e-12 || math.Abs(v.Z-0.8) > 1e-12 {
		t.Errorf("Expected (0.6, 0, 0.8), got %v", v)
	}

	_, err = Vec3{}.Norm()
	if !errors.Is(err, ErrZeroLength) {
		t.Errorf("Expected ErrZeroLength, got %v", err)
	}
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Errorf("Expected *DomainError, got %T", err)
	}
}

func TestReflect(t *testing.T) {
	tests := []struct {
		name     string
		d, n     Vec3
		expected Vec3
	}{
		{"Straight down off unit normal", NewVec3(0, 0, -1), NewVec3(0, 0, 1), NewVec3(0, 0, 1)},
		{"Straight down off scaled normal", NewVec3(0, 0, -1), NewVec3(0, 0, 7.5), NewVec3(0, 0, 1)},
		{"Straight down off flipped normal", NewVec3(0, 0, -1), NewVec3(0, 0, -3), NewVec3(0, 0, 1)},
		{"Oblique keeps tangential part", NewVec3(1, 2, -1), NewVec3(0, 0, 2), NewVec3(1, 2, 1)},
		{"Grazing direction unchanged", NewVec3(1, 0, 0), NewVec3(0, 0, 1), NewVec3(1, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := Reflect(tt.d, tt.n)
			if !ok {
				t.Fatal("Expected reflection to be defined")
			}
			if r.Subtract(tt.expected).Length() > 1e-12 {
				t.Errorf("Expected %v, got %v", tt.expected, r)
			}
		})
	}

	if _, ok := Reflect(NewVec3(0, 0, -1), Vec3{}); ok {
		t.Error("Expected reflection off a zero normal to be undefined")
	}
}

func TestVec2_W(t *testing.T) {
	b := NewVec2(0.25, 0.5)
	if math.Abs(b.U+b.V+b.W()-1) > 1e-15 {
		t.Errorf("Expected weights to sum to 1, got %f", b.U+b.V+b.W())
	}
	if b.W() != 0.25 {
		t.Errorf("Expected W=0.25, got %f", b.W())
	}
}
