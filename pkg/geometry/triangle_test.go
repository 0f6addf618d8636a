package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-twobounce/pkg/core"
)

func TestTriangle_Intersect(t *testing.T) {
	// Create a triangle in the XY plane
	triangle := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0))

	tests := []struct {
		name      string
		ray       core.Ray
		shouldHit bool
		expectedT float64
	}{
		{
			name:      "Ray hits triangle interior",
			ray:       core.NewRay(core.NewVec3(0.25, 0.25, -1), core.NewVec3(0, 0, 1)),
			shouldHit: true,
			expectedT: 1.0,
		},
		{
			name:      "Ray hits triangle edge",
			ray:       core.NewRay(core.NewVec3(0.5, 0, -1), core.NewVec3(0, 0, 1)),
			shouldHit: true,
			expectedT: 1.0,
		},
		{
			name:      "Non-unit direction measures t in direction lengths",
			ray:       core.NewRay(core.NewVec3(0.2, 0.2, -4), core.NewVec3(0, 0, 2)),
			shouldHit: true,
			expectedT: 2.0,
		},
		{
			name:      "Ray misses triangle",
			ray:       core.NewRay(core.NewVec3(1, 1, -1), core.NewVec3(0, 0, 1)),
			shouldHit: false,
		},
		{
			name:      "Ray hits from behind",
			ray:       core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, -1)),
			shouldHit: true,
			expectedT: 1.0,
		},
		{
			name:      "Triangle behind origin",
			ray:       core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, 1)),
			shouldHit: false,
		},
		{
			name:      "Origin on the triangle",
			ray:       core.NewRay(core.NewVec3(0.25, 0.25, 0), core.NewVec3(0, 0, 1)),
			shouldHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tHit, bary, isHit := triangle.Intersect(tt.ray)

			if isHit != tt.shouldHit {
				t.Fatalf("Expected hit=%v, got hit=%v", tt.shouldHit, isHit)
			}
			if !tt.shouldHit {
				return
			}

			if math.Abs(tHit-tt.expectedT) > 1e-9 {
				t.Errorf("Expected t=%f, got t=%f", tt.expectedT, tHit)
			}
			if bary.U < 0 || bary.V < 0 || bary.U+bary.V > 1 {
				t.Errorf("Barycentric coordinates out of range: %+v", bary)
			}

			// The barycentric point must be the ray point
			expectedPoint := tt.ray.At(tHit)
			if expectedPoint.Subtract(triangle.PointAt(bary)).Length() > 1e-9 {
				t.Errorf("Hit point mismatch: expected %v, got %v", expectedPoint, triangle.PointAt(bary))
			}
		})
	}
}

func TestTriangle_IntersectParallel(t *testing.T) {
	triangle := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0))

	for _, z := range []float64{-2, -0.5, 0, 0.5, 2} {
		for _, dir := range []core.Vec3{core.NewVec3(1, 0, 0), core.NewVec3(0, -1, 0), core.NewVec3(1, 1, 0)} {
			ray := core.NewRay(core.NewVec3(-0.5, 0.25, z), dir)
			if _, _, hit := triangle.Intersect(ray); hit {
				t.Errorf("Parallel ray from z=%f along %v should miss", z, dir)
			}
		}
	}
}

func TestTriangle_IntersectDegenerate(t *testing.T) {
	// Collinear vertices have no plane
	triangle := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(2, 0, 0))
	ray := core.NewRay(core.NewVec3(0.5, 0, -1), core.NewVec3(0, 0, 1))
	if _, _, hit := triangle.Intersect(ray); hit {
		t.Error("Degenerate triangle should never be hit")
	}
}

func TestTriangle_SurfaceNormal(t *testing.T) {
	triangle := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 0))
	if n := triangle.SurfaceNormal(); n != core.NewVec3(0, 0, 4) {
		t.Errorf("Expected geometric normal (0,0,4), got %v", n)
	}

	loaded := triangle.WithNormal(core.NewVec3(0, 0, -1))
	if n := loaded.SurfaceNormal(); n != core.NewVec3(0, 0, -1) {
		t.Errorf("Expected loaded normal (0,0,-1), got %v", n)
	}
}

func TestTriangle_TextureCoord(t *testing.T) {
	triangle := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0))
	if _, ok := triangle.TextureCoord(core.NewVec2(0.2, 0.3)); ok {
		t.Error("Expected no texture coordinate without texture data")
	}

	textured := triangle.WithTexCoords(core.NewVec2(0.5, 0.5), core.NewVec2(1, 0.5), core.NewVec2(0.5, 1))
	uv, ok := textured.TextureCoord(core.NewVec2(0.2, 0.3))
	if !ok {
		t.Fatal("Expected texture coordinate")
	}
	// W=0.5: 0.5·(0.5,0.5) + 0.2·(1,0.5) + 0.3·(0.5,1) = (0.6, 0.65)
	if math.Abs(uv.U-0.6) > 1e-12 || math.Abs(uv.V-0.65) > 1e-12 {
		t.Errorf("Expected (0.6, 0.65), got %+v", uv)
	}
}

func TestTriangle_BoundingBox(t *testing.T) {
	triangle := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(2, 0, 0), core.NewVec3(1, 3, -1))
	bbox := triangle.BoundingBox()
	if bbox.Min != core.NewVec3(0, 0, -1) || bbox.Max != core.NewVec3(2, 3, 0) {
		t.Errorf("Unexpected bounding box %v - %v", bbox.Min, bbox.Max)
	}
}
