package geometry

import (
	"math"

	"github.com/df07/go-twobounce/pkg/core"
)

// Triangle represents a single triangle defined by three vertices
type Triangle struct {
	A, B, C core.Vec3 // The three vertices

	// Normal as loaded from the scene; not necessarily unit length.
	// Only meaningful when HasNormal is set.
	Normal    core.Vec3
	HasNormal bool

	// Texture coordinates of A, B and C.
	// Only meaningful when HasTexCoords is set.
	TexCoords    [3]core.Vec2
	HasTexCoords bool

	Object int // Index of the owning object in Scene.Objects
}

// NewTriangle creates a new triangle from three vertices
func NewTriangle(a, b, c core.Vec3) Triangle {
	return Triangle{A: a, B: b, C: c, Object: -1}
}

// WithNormal returns a copy of the triangle carrying a precomputed normal
func (t Triangle) WithNormal(normal core.Vec3) Triangle {
	t.Normal = normal
	t.HasNormal = true
	return t
}

// WithTexCoords returns a copy of the triangle carrying per-vertex texture coordinates
func (t Triangle) WithTexCoords(at, bt, ct core.Vec2) Triangle {
	t.TexCoords = [3]core.Vec2{at, bt, ct}
	t.HasTexCoords = true
	return t
}

// Intersect tests the ray against the triangle using the Möller-Trumbore
// algorithm. It returns the parametric distance along the ray (in units of
// |ray.Direction|) and the barycentric weights (U, V) of B and C.
//
// Both faces are hittable. A ray parallel to the triangle's plane, a
// degenerate triangle and hits closer than core.Epsilon are all misses.
func (t *Triangle) Intersect(ray core.Ray) (tHit float64, bary core.Vec2, ok bool) {
	edge1 := t.B.Subtract(t.A)
	edge2 := t.C.Subtract(t.A)

	pvec := ray.Direction.Cross(edge2)
	det := edge1.Dot(pvec)
	if math.Abs(det) < core.Epsilon {
		return 0, core.Vec2{}, false
	}

	invDet := 1.0 / det
	tvec := ray.Origin.Subtract(t.A)
	u := tvec.Dot(pvec) * invDet
	if u < 0.0 || u > 1.0 {
		return 0, core.Vec2{}, false
	}

	qvec := tvec.Cross(edge1)
	v := ray.Direction.Dot(qvec) * invDet
	if v < 0.0 || u+v > 1.0 {
		return 0, core.Vec2{}, false
	}

	tHit = edge2.Dot(qvec) * invDet
	if tHit < core.Epsilon {
		return 0, core.Vec2{}, false
	}

	return tHit, core.NewVec2(u, v), true
}

// SurfaceNormal returns the loaded normal, or the geometric normal
// (B-A)×(C-A) when none was loaded
func (t *Triangle) SurfaceNormal() core.Vec3 {
	if t.HasNormal {
		return t.Normal
	}
	return t.B.Subtract(t.A).Cross(t.C.Subtract(t.A))
}

// PointAt returns the surface point with barycentric weights bary
func (t *Triangle) PointAt(bary core.Vec2) core.Vec3 {
	return t.A.Multiply(bary.W()).Add(t.B.Multiply(bary.U)).Add(t.C.Multiply(bary.V))
}

// TextureCoord interpolates the vertex texture coordinates at bary:
// W·AT + U·BT + V·CT
func (t *Triangle) TextureCoord(bary core.Vec2) (core.Vec2, bool) {
	if !t.HasTexCoords {
		return core.Vec2{}, false
	}
	return t.TexCoords[0].Multiply(bary.W()).
		Add(t.TexCoords[1].Multiply(bary.U)).
		Add(t.TexCoords[2].Multiply(bary.V)), true
}

// BoundingBox returns the box over all three vertices
func (t *Triangle) BoundingBox() core.AABB {
	return core.NewAABBFromPoints(t.A, t.B, t.C)
}
