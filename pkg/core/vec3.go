package core

import (
	"fmt"
	"math"
)

// Epsilon is the threshold below which determinants, parametric distances
// and squared normal lengths are treated as zero.
const Epsilon = 1e-6

// DomainError reports a vector operation applied outside its domain
type DomainError struct {
	Op  string
	Msg string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// ErrZeroLength is returned when normalizing a zero-length vector
var ErrZeroLength = &DomainError{Op: "norm", Msg: "zero-length vector"}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float64
}

// NewVec3 creates a new Vec3
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns the sum of two vectors
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Subtract returns the difference of two vectors
func (v Vec3) Subtract(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Multiply returns the vector scaled by a scalar
func (v Vec3) Multiply(scalar float64) Vec3 {
	return Vec3{v.X * scalar, v.Y * scalar, v.Z * scalar}
}

// Divide returns the vector divided by a scalar
func (v Vec3) Divide(scalar float64) Vec3 {
	return Vec3{v.X / scalar, v.Y / scalar, v.Z / scalar}
}

// Length returns the magnitude of the vector
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// LengthSquared returns the squared magnitude of the vector
func (v Vec3) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Dot returns the dot product of two vectors
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product of two vectors
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Norm returns a unit vector in the same direction.
// A zero-length vector has no direction and yields ErrZeroLength.
func (v Vec3) Norm() (Vec3, error) {
	length := v.Length()
	if length == 0 {
		return Vec3{}, ErrZeroLength
	}
	return v.Divide(length), nil
}

// Negate returns the negative of the vector
func (v Vec3) Negate() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

// Component returns the coordinate along axis 0 (X), 1 (Y) or 2 (Z)
func (v Vec3) Component(axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Min returns the component-wise minimum of two vectors
func (v Vec3) Min(other Vec3) Vec3 {
	return Vec3{math.Min(v.X, other.X), math.Min(v.Y, other.Y), math.Min(v.Z, other.Z)}
}

// Max returns the component-wise maximum of two vectors
func (v Vec3) Max(other Vec3) Vec3 {
	return Vec3{math.Max(v.X, other.X), math.Max(v.Y, other.Y), math.Max(v.Z, other.Z)}
}

// Reflect mirrors direction d about a surface with normal n.
// The normal need not be unit length. ok is false when n is effectively zero.
func Reflect(d, n Vec3) (r Vec3, ok bool) {
	nn := n.Dot(n)
	if nn < Epsilon*Epsilon {
		return Vec3{}, false
	}
	return d.Subtract(n.Multiply(2 * d.Dot(n) / nn)), true
}

func (v Vec3) String() string {
	return fmt.Sprintf("<%.3f, %.3f, %.3f>", v.X, v.Y, v.Z)
}

// Vec2 holds barycentric weights (U, V) of a point relative to a triangle's
// vertices B and C; the weight of A is W = 1-U-V. Also used for texture
// coordinates.
type Vec2 struct {
	U, V float64
}

// NewVec2 creates a new Vec2
func NewVec2(u, v float64) Vec2 {
	return Vec2{U: u, V: v}
}

// W returns the remaining barycentric weight
func (b Vec2) W() float64 {
	return 1 - b.U - b.V
}

// Add returns the sum of two vectors
func (b Vec2) Add(other Vec2) Vec2 {
	return Vec2{b.U + other.U, b.V + other.V}
}

// Multiply returns the vector scaled by a scalar
func (b Vec2) Multiply(scalar float64) Vec2 {
	return Vec2{b.U * scalar, b.V * scalar}
}
