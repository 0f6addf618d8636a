package geometry

import (
	"math"
	"sort"

	"github.com/df07/go-twobounce/pkg/core"
)

// DefaultLeafCapacity is the number of triangles at or below which a node becomes a leaf
const DefaultLeafCapacity = 8

// maxDepth bounds the traversal stack. Median splits halve the triangle count
// at every level, so this covers any scene that fits in memory.
const maxDepth = 64

// BVHNode is one node of the flat BVH arena. A leaf has Left == -1 and owns
// BVH.Indices[First : First+Count]; an internal node owns two children.
type BVHNode struct {
	Bounds      core.AABB
	Left, Right int
	First       int
	Count       int
}

// IsLeaf reports whether the node stores triangles directly
func (n *BVHNode) IsLeaf() bool {
	return n.Left < 0
}

// BVH represents a Bounding Volume Hierarchy over a scene's triangles.
// It is built once and only read afterwards.
type BVH struct {
	Nodes   []BVHNode
	Indices []int // Triangle indices into Scene.Triangles, grouped by leaf

	scene        *Scene
	leafCapacity int
}

// NewBVH constructs a BVH over every triangle of the scene.
// A leafCapacity below 1 uses DefaultLeafCapacity.
func NewBVH(scene *Scene, leafCapacity int) *BVH {
	if leafCapacity < 1 {
		leafCapacity = DefaultLeafCapacity
	}

	bvh := &BVH{
		Indices:      make([]int, len(scene.Triangles)),
		scene:        scene,
		leafCapacity: leafCapacity,
	}
	for i := range bvh.Indices {
		bvh.Indices[i] = i
	}
	if len(bvh.Indices) > 0 {
		bvh.build(0, len(bvh.Indices), 0)
	}
	return bvh
}

// LeafCapacity returns the capacity the tree was built with
func (bvh *BVH) LeafCapacity() int {
	return bvh.leafCapacity
}

// build creates the node for Indices[start:end] and returns its index
func (bvh *BVH) build(start, end, depth int) int {
	nodeIndex := len(bvh.Nodes)
	bvh.Nodes = append(bvh.Nodes, BVHNode{Left: -1, Right: -1})

	indices := bvh.Indices[start:end]
	bounds := bvh.computeBounds(indices)

	if len(indices) <= bvh.leafCapacity || depth >= maxDepth-1 {
		bvh.Nodes[nodeIndex] = BVHNode{
			Bounds: padBounds(bounds),
			Left:   -1,
			Right:  -1,
			First:  start,
			Count:  end - start,
		}
		return nodeIndex
	}

	// Split along the longest axis of the full vertex set, ordering by
	// the first vertex, at the median index
	axis := bounds.LongestAxis()
	triangles := bvh.scene.Triangles
	sort.SliceStable(indices, func(i, j int) bool {
		return triangles[indices[i]].A.Component(axis) < triangles[indices[j]].A.Component(axis)
	})

	mid := start + len(indices)/2
	left := bvh.build(start, mid, depth+1)
	right := bvh.build(mid, end, depth+1)

	bvh.Nodes[nodeIndex] = BVHNode{
		Bounds: bvh.Nodes[left].Bounds.Union(bvh.Nodes[right].Bounds),
		Left:   left,
		Right:  right,
	}
	return nodeIndex
}

// computeBounds returns the tight box over all three vertices of every triangle
func (bvh *BVH) computeBounds(indices []int) core.AABB {
	box := core.EmptyAABB()
	for _, idx := range indices {
		tri := &bvh.scene.Triangles[idx]
		box = box.Extend(tri.A).Extend(tri.B).Extend(tri.C)
	}
	return box
}

// padBounds grows a leaf box by a few ulps of its magnitude so the slab test
// cannot reject a ray that the exact triangle test accepts on a box face
func padBounds(box core.AABB) core.AABB {
	magnitude := 0.0
	for axis := 0; axis < 3; axis++ {
		magnitude = math.Max(magnitude, math.Abs(box.Min.Component(axis)))
		magnitude = math.Max(magnitude, math.Abs(box.Max.Component(axis)))
	}
	return box.Expand(1e-9 * (1 + magnitude))
}

// Query appends to dst the indices of every triangle whose leaf box the ray
// passes through. Every triangle the exact test would hit is included;
// others may be. Order is unspecified.
func (bvh *BVH) Query(ray core.Ray, dst []int) []int {
	if len(bvh.Nodes) == 0 {
		return dst
	}

	var stack [maxDepth + 1]int
	top := 0
	stack[top] = 0
	top++

	for top > 0 {
		top--
		node := &bvh.Nodes[stack[top]]
		if !node.Bounds.Hit(ray) {
			continue
		}
		if node.IsLeaf() {
			dst = append(dst, bvh.Indices[node.First:node.First+node.Count]...)
			continue
		}
		stack[top] = node.Right
		top++
		stack[top] = node.Left
		top++
	}
	return dst
}

// BVHStats contains statistics about the BVH structure
type BVHStats struct {
	TotalNodes     int
	LeafNodes      int
	MaxDepth       int
	AvgDepth       float64
	TotalTriangles int
}

// Stats returns statistics about the BVH structure
func (bvh *BVH) Stats() BVHStats {
	stats := BVHStats{}
	if len(bvh.Nodes) == 0 {
		return stats
	}
	bvh.collectStats(0, 0, &stats)
	if stats.LeafNodes > 0 {
		stats.AvgDepth /= float64(stats.LeafNodes)
	}
	return stats
}

// collectStats recursively collects statistics about the BVH
func (bvh *BVH) collectStats(nodeIndex, depth int, stats *BVHStats) {
	node := &bvh.Nodes[nodeIndex]
	stats.TotalNodes++
	if depth > stats.MaxDepth {
		stats.MaxDepth = depth
	}

	if node.IsLeaf() {
		stats.LeafNodes++
		stats.TotalTriangles += node.Count
		stats.AvgDepth += float64(depth)
		return
	}
	bvh.collectStats(node.Left, depth+1, stats)
	bvh.collectStats(node.Right, depth+1, stats)
}
