package trace

import (
	"fmt"

	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/geometry"
)

// Hit records the outcome of casting one ray into the scene.
// When Found is false only Origin and Direction are meaningful.
type Hit struct {
	Origin    core.Vec3
	Direction core.Vec3

	Found    bool
	T        float64   // Parametric distance in units of |Direction|
	Triangle int       // Index into Scene.Triangles
	Object   int       // Index into Scene.Objects
	Bary     core.Vec2 // Barycentric weights of the triangle's B and C
}

// Miss returns a hit record for a ray that touched nothing
func Miss(origin, direction core.Vec3) Hit {
	return Hit{Origin: origin, Direction: direction, Triangle: -1, Object: -1}
}

// Point returns the collision point. Only valid when Found is set.
func (h Hit) Point() core.Vec3 {
	return h.Origin.Add(h.Direction.Multiply(h.T))
}

// Critical reports whether the ray hit an object flagged critical
func (h Hit) Critical(scene *geometry.Scene) bool {
	return h.Found && scene.Objects[h.Object].Critical
}

// Describe renders the hit for inspection output
func (h Hit) Describe(scene *geometry.Scene) string {
	if !h.Found {
		return fmt.Sprintf("start %v, direction %v: no hit", h.Origin, h.Direction)
	}
	return fmt.Sprintf("start %v, direction %v, t=%.4f: hit %s at %v (u=%.3f, v=%.3f)",
		h.Origin, h.Direction, h.T, scene.Objects[h.Object].Name, h.Point(), h.Bary.U, h.Bary.V)
}
