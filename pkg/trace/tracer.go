package trace

import (
	"fmt"

	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/geometry"
)

// Policy decides which objects the reflected ray may hit
type Policy string

const (
	// IncludeOrigin lets the reflected ray hit every object, including the
	// one it bounced off. Concave objects can reflect onto themselves.
	IncludeOrigin Policy = "include-origin"
	// ExcludeOrigin skips the object the first hit landed on, ruling out
	// self-intersection caused by rounding at the bounce point.
	ExcludeOrigin Policy = "exclude-origin"
)

// ParsePolicy validates a policy name
func ParsePolicy(name string) (Policy, error) {
	switch Policy(name) {
	case IncludeOrigin, ExcludeOrigin:
		return Policy(name), nil
	case "":
		return IncludeOrigin, nil
	}
	return "", fmt.Errorf("unknown second-bounce policy %q (want %q or %q)", name, IncludeOrigin, ExcludeOrigin)
}

// Tracer casts rays against a scene through its BVH.
// It holds no mutable state; one Tracer may serve any number of goroutines
// as long as each passes its own candidate buffer.
type Tracer struct {
	Scene  *geometry.Scene
	BVH    *geometry.BVH
	Policy Policy
}

// NewTracer builds the BVH for scene and returns a tracer over it
func NewTracer(scene *geometry.Scene, leafCapacity int, policy Policy) *Tracer {
	return &Tracer{
		Scene:  scene,
		BVH:    geometry.NewBVH(scene, leafCapacity),
		Policy: policy,
	}
}

// Closest returns the nearest hit along the ray, ignoring triangles owned by
// object exclude (pass -1 to consider everything). buf is scratch space for
// BVH candidates and is returned for reuse.
func (tr *Tracer) Closest(ray core.Ray, exclude int, buf []int) (Hit, []int) {
	hit := Miss(ray.Origin, ray.Direction)
	buf = tr.BVH.Query(ray, buf[:0])

	for _, idx := range buf {
		tri := &tr.Scene.Triangles[idx]
		if tri.Object == exclude {
			continue
		}
		t, bary, ok := tri.Intersect(ray)
		if !ok || (hit.Found && t >= hit.T) {
			continue
		}
		hit.Found = true
		hit.T = t
		hit.Triangle = idx
		hit.Object = tri.Object
		hit.Bary = bary
	}
	return hit, buf
}

// TwoBounce traces a ray to its first hit, reflects it specularly off the
// hit triangle's normal and traces the reflection. If the first ray misses,
// both hits are misses. A degenerate normal makes the second hit a miss.
func (tr *Tracer) TwoBounce(origin, direction core.Vec3, buf []int) (first, second Hit, scratch []int) {
	first, buf = tr.Closest(core.NewRay(origin, direction), -1, buf)
	if !first.Found {
		return first, Miss(core.Vec3{}, core.Vec3{}), buf
	}

	bounce := first.Point()
	normal := tr.Scene.Triangles[first.Triangle].SurfaceNormal()
	reflected, ok := core.Reflect(direction, normal)
	if !ok {
		return first, Miss(bounce, core.Vec3{}), buf
	}

	exclude := -1
	if tr.Policy == ExcludeOrigin {
		exclude = first.Object
	}
	second, buf = tr.Closest(core.NewRay(bounce, reflected), exclude, buf)
	return first, second, buf
}
