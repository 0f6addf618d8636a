package scene

import (
	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/geometry"
)

// mustBuild finishes a builder whose shapes are all added to a started object.
// Built-in scenes are static, so an error here is a programming mistake.
func mustBuild(b *geometry.SceneBuilder, errs ...error) *geometry.Scene {
	for _, err := range errs {
		if err != nil {
			panic(err)
		}
	}
	return b.Build()
}

// NewSquareScene creates a unit critical square five units above the source.
// A ray straight up hits it at t=5 and reflects straight back into empty space.
func NewSquareScene() *Scene {
	b := geometry.NewSceneBuilder()
	b.BeginObject("square-crit", true)
	err := b.AddQuad(core.NewVec3(-0.5, -0.5, 5), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0))

	return &Scene{
		Name:        "square",
		Description: "Unit critical square above the source",
		Geometry:    mustBuild(b, err),
		Source:      core.NewVec3(0, 0, 0),
	}
}

// NewShellScene creates a closed critical cube around the source, so every
// ray and every reflection hits critical geometry
func NewShellScene() *Scene {
	b := geometry.NewSceneBuilder()
	b.BeginObject("shell-crit", true)
	err := b.AddBox(core.NewVec3(0, 0, 0), core.NewVec3(5, 5, 5), true)

	return &Scene{
		Name:        "shell",
		Description: "Closed critical cube around the source",
		Geometry:    mustBuild(b, err),
		Source:      core.NewVec3(0, 0, 0),
	}
}

// NewMirrorBoxScene creates a critical target lying in the source's own
// horizontal plane, so no direct ray can reach it. A mirror overhead reflects
// rays down onto it: a ray reflected at (x,10,z) lands at (2x,0,2z).
func NewMirrorBoxScene() *Scene {
	b := geometry.NewSceneBuilder()

	b.BeginObject("mirror", false)
	errMirror := b.AddQuad(core.NewVec3(-10, 10, -10), core.NewVec3(20, 0, 0), core.NewVec3(0, 0, 20))

	b.BeginObject("target-crit", true)
	errTarget := b.AddQuad(core.NewVec3(4, 0, -1), core.NewVec3(0, 0, 2), core.NewVec3(2, 0, 0))

	return &Scene{
		Name:        "mirror-box",
		Description: "Critical target visible only through an overhead mirror",
		Geometry:    mustBuild(b, errMirror, errTarget),
		Source:      core.NewVec3(0, 0, 0),
	}
}
