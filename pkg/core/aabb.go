package core

import "math"

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min Vec3 // Minimum corner
	Max Vec3 // Maximum corner
}

// NewAABB creates a new AABB from min and max points
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// EmptyAABB returns an inverted box that any Extend call will replace
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// NewAABBFromPoints creates an AABB that bounds all given points
func NewAABBFromPoints(points ...Vec3) AABB {
	box := EmptyAABB()
	for _, p := range points {
		box = box.Extend(p)
	}
	return box
}

// Extend returns the box grown to contain p
func (aabb AABB) Extend(p Vec3) AABB {
	return AABB{Min: aabb.Min.Min(p), Max: aabb.Max.Max(p)}
}

// Union returns an AABB that bounds both this AABB and another
func (aabb AABB) Union(other AABB) AABB {
	return AABB{Min: aabb.Min.Min(other.Min), Max: aabb.Max.Max(other.Max)}
}

// Size returns the extent of the AABB along each axis
func (aabb AABB) Size() Vec3 {
	return aabb.Max.Subtract(aabb.Min)
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) with the longest extent.
// Ties resolve to the lower axis.
func (aabb AABB) LongestAxis() int {
	size := aabb.Size()
	axis := 0
	if size.Y > size.Component(axis) {
		axis = 1
	}
	if size.Z > size.Component(axis) {
		axis = 2
	}
	return axis
}

// IsValid returns true if min <= max on every axis
func (aabb AABB) IsValid() bool {
	return aabb.Min.X <= aabb.Max.X &&
		aabb.Min.Y <= aabb.Max.Y &&
		aabb.Min.Z <= aabb.Max.Z
}

// Expand returns an AABB expanded by the given amount in all directions
func (aabb AABB) Expand(amount float64) AABB {
	expansion := NewVec3(amount, amount, amount)
	return AABB{
		Min: aabb.Min.Subtract(expansion),
		Max: aabb.Max.Add(expansion),
	}
}

// Hit tests the ray against the box with the slab method.
//
// Division by a zero direction component relies on IEEE semantics to give
// ±Inf; the sign bit of the direction decides the swap so -0 behaves. A NaN
// bound (origin exactly on a slab plane with a zero direction component)
// leaves that side of the interval open. The box is hit when the
// latest entry is not after the earliest exit and the exit lies ahead of the
// origin; touching a flat box counts as a hit.
func (aabb AABB) Hit(ray Ray) bool {
	tEnter := math.Inf(-1)
	tExit := math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		origin := ray.Origin.Component(axis)
		direction := ray.Direction.Component(axis)

		t1 := (aabb.Min.Component(axis) - origin) / direction
		t2 := (aabb.Max.Component(axis) - origin) / direction
		if math.Signbit(direction) {
			t1, t2 = t2, t1
		}

		if !math.IsNaN(t1) && t1 > tEnter {
			tEnter = t1
		}
		if !math.IsNaN(t2) && t2 < tExit {
			tExit = t2
		}
	}

	return tEnter <= tExit && tExit > 0
}
