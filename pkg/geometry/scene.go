package geometry

import (
	"fmt"
	"strings"

	"github.com/df07/go-twobounce/pkg/core"
)

// CriticalToken marks a group as critical when it appears as one of the
// '-'-separated tokens of the group name, e.g. "panel-crit".
const CriticalToken = "crit"

// IsCriticalName reports whether a group name carries the critical token
func IsCriticalName(name string) bool {
	for _, token := range strings.Split(name, "-") {
		if token == CriticalToken {
			return true
		}
	}
	return false
}

// Object is a named group of triangles in a scene.
// Its triangles occupy Scene.Triangles[First : First+Count].
type Object struct {
	Name     string
	Critical bool
	First    int
	Count    int
	Bounds   core.AABB // Over all three vertices of every owned triangle
}

// Triangles returns the object's slice of the scene's triangle arena
func (o *Object) Triangles(s *Scene) []Triangle {
	return s.Triangles[o.First : o.First+o.Count]
}

// Scene holds every object and triangle of a simulation.
// It is never mutated after Build and may be shared by any number of goroutines.
type Scene struct {
	Objects   []Object
	Triangles []Triangle
}

// Bounds returns the box over all triangles in the scene
func (s *Scene) Bounds() core.AABB {
	box := core.EmptyAABB()
	for i := range s.Objects {
		if s.Objects[i].Count > 0 {
			box = box.Union(s.Objects[i].Bounds)
		}
	}
	return box
}

// ObjectOf returns the object owning triangle index tri
func (s *Scene) ObjectOf(tri int) *Object {
	return &s.Objects[s.Triangles[tri].Object]
}

// CriticalCount returns the number of objects flagged critical
func (s *Scene) CriticalCount() int {
	count := 0
	for i := range s.Objects {
		if s.Objects[i].Critical {
			count++
		}
	}
	return count
}

func (s *Scene) String() string {
	return fmt.Sprintf("%d objects (%d critical), %d triangles", len(s.Objects), s.CriticalCount(), len(s.Triangles))
}

// MeshOptions contains optional per-triangle data for AddMesh
type MeshOptions struct {
	Normals   []core.Vec3 // Optional normals (one per triangle)
	TexCoords []core.Vec2 // Optional texture coordinates (one per vertex)
}

// SceneBuilder assembles a Scene object by object
type SceneBuilder struct {
	objects   []Object
	triangles []Triangle
}

// NewSceneBuilder creates an empty builder
func NewSceneBuilder() *SceneBuilder {
	return &SceneBuilder{}
}

// BeginObject starts a new object; subsequent triangles belong to it
func (b *SceneBuilder) BeginObject(name string, critical bool) int {
	b.objects = append(b.objects, Object{
		Name:     name,
		Critical: critical,
		First:    len(b.triangles),
		Bounds:   core.EmptyAABB(),
	})
	return len(b.objects) - 1
}

// HasObject reports whether any object has been started
func (b *SceneBuilder) HasObject() bool {
	return len(b.objects) > 0
}

// AddTriangle appends a triangle to the current object
func (b *SceneBuilder) AddTriangle(t Triangle) error {
	if len(b.objects) == 0 {
		return fmt.Errorf("triangle added before any object")
	}
	current := len(b.objects) - 1
	obj := &b.objects[current]

	t.Object = current
	b.triangles = append(b.triangles, t)
	obj.Count++
	obj.Bounds = obj.Bounds.Extend(t.A).Extend(t.B).Extend(t.C)
	return nil
}

// AddMesh adds a complete object from shared vertices and face indices
// (each group of 3 indices forms a triangle)
func (b *SceneBuilder) AddMesh(name string, critical bool, vertices []core.Vec3, faces []int, options *MeshOptions) error {
	if len(faces)%3 != 0 {
		return fmt.Errorf("mesh %s: face indices must be a multiple of 3, got %d", name, len(faces))
	}
	numTriangles := len(faces) / 3

	if options != nil {
		if options.Normals != nil && len(options.Normals) != numTriangles {
			return fmt.Errorf("mesh %s: %d normals for %d triangles", name, len(options.Normals), numTriangles)
		}
		if options.TexCoords != nil && len(options.TexCoords) != len(vertices) {
			return fmt.Errorf("mesh %s: %d texture coordinates for %d vertices", name, len(options.TexCoords), len(vertices))
		}
	}

	b.BeginObject(name, critical)
	for i := 0; i < numTriangles; i++ {
		i0, i1, i2 := faces[i*3], faces[i*3+1], faces[i*3+2]
		for _, idx := range [3]int{i0, i1, i2} {
			if idx < 0 || idx >= len(vertices) {
				return fmt.Errorf("mesh %s: face %d index %d out of range [0,%d)", name, i, idx, len(vertices))
			}
		}

		tri := NewTriangle(vertices[i0], vertices[i1], vertices[i2])
		if options != nil && options.Normals != nil {
			tri = tri.WithNormal(options.Normals[i])
		}
		if options != nil && options.TexCoords != nil {
			tri = tri.WithTexCoords(options.TexCoords[i0], options.TexCoords[i1], options.TexCoords[i2])
		}
		if err := b.AddTriangle(tri); err != nil {
			return err
		}
	}
	return nil
}

// Build freezes the builder's contents into a Scene
func (b *SceneBuilder) Build() *Scene {
	scene := &Scene{
		Objects:   make([]Object, len(b.objects)),
		Triangles: make([]Triangle, len(b.triangles)),
	}
	copy(scene.Objects, b.objects)
	copy(scene.Triangles, b.triangles)
	return scene
}
