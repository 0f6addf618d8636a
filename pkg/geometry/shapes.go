package geometry

import "github.com/df07/go-twobounce/pkg/core"

// AddQuad adds a parallelogram to the current object as two triangles.
// The normal is u × v and texture coordinates run from (0,0) at corner to
// (1,1) at corner+u+v.
func (b *SceneBuilder) AddQuad(corner, u, v core.Vec3) error {
	normal := u.Cross(v)
	p0 := corner
	p1 := corner.Add(u)
	p2 := corner.Add(u).Add(v)
	p3 := corner.Add(v)

	t0, t1, t2, t3 := core.NewVec2(0, 0), core.NewVec2(1, 0), core.NewVec2(1, 1), core.NewVec2(0, 1)

	if err := b.AddTriangle(NewTriangle(p0, p1, p2).WithNormal(normal).WithTexCoords(t0, t1, t2)); err != nil {
		return err
	}
	return b.AddTriangle(NewTriangle(p0, p2, p3).WithNormal(normal).WithTexCoords(t0, t2, t3))
}

// AddBox adds the six faces of an axis-aligned box to the current object.
// halfSize holds half-extents, so (1,1,1) creates a 2x2x2 box. Normals point
// outward, or inward when inward is set (a room seen from inside).
func (b *SceneBuilder) AddBox(center, halfSize core.Vec3, inward bool) error {
	// The 8 corners of the box
	corners := [8]core.Vec3{
		core.NewVec3(-1, -1, -1), // 0: left-bottom-back
		core.NewVec3(1, -1, -1),  // 1: right-bottom-back
		core.NewVec3(1, 1, -1),   // 2: right-top-back
		core.NewVec3(-1, 1, -1),  // 3: left-top-back
		core.NewVec3(-1, -1, 1),  // 4: left-bottom-front
		core.NewVec3(1, -1, 1),   // 5: right-bottom-front
		core.NewVec3(1, 1, 1),    // 6: right-top-front
		core.NewVec3(-1, 1, 1),   // 7: left-top-front
	}
	for i := range corners {
		corners[i] = core.NewVec3(
			corners[i].X*halfSize.X,
			corners[i].Y*halfSize.Y,
			corners[i].Z*halfSize.Z,
		).Add(center)
	}

	// Each face as corner, u, v with u × v pointing outward
	faces := [6][3]int{
		{4, 5, 7}, // Front (Z+)
		{1, 0, 2}, // Back (Z-)
		{5, 1, 6}, // Right (X+)
		{0, 4, 3}, // Left (X-)
		{7, 6, 3}, // Top (Y+)
		{0, 1, 4}, // Bottom (Y-)
	}
	for _, f := range faces {
		corner := corners[f[0]]
		u := corners[f[1]].Subtract(corner)
		v := corners[f[2]].Subtract(corner)
		if inward {
			u, v = v, u
		}
		if err := b.AddQuad(corner, u, v); err != nil {
			return err
		}
	}
	return nil
}
