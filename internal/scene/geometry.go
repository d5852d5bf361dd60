package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/scenecore/scenecore/internal/geom"
)

// Geometry is the collision-facing view of a mesh: untransformed local-space
// vertices and optional triangle indices. Triangles are index triples, or
// consecutive vertex triples when Indices is empty. The spatial index borrows
// these slices at build time and treats them as read-only.
type Geometry struct {
	Mesh     string
	Vertices []mgl32.Vec3
	Indices  []uint32
}

// LocalBounds returns the box around the untransformed vertices.
func (g *Geometry) LocalBounds() geom.AABB {
	return geom.BoundsOf(g.Vertices)
}

// WorldBounds transforms every vertex by model (see Object.WorldMatrix) and
// returns the box around the results.
func (g *Geometry) WorldBounds(model mgl32.Mat4) geom.AABB {
	b := geom.EmptyAABB()
	for _, v := range g.Vertices {
		b.ExtendPoint(mgl32.TransformCoordinate(v, model))
	}
	return b
}

// TriangleCount returns the number of complete triangles.
func (g *Geometry) TriangleCount() int {
	if len(g.Indices) > 0 {
		return len(g.Indices) / 3
	}
	return len(g.Vertices) / 3
}

// MeshSource resolves named meshes referenced by scene files.
type MeshSource interface {
	Mesh(name string) (Geometry, bool)
}
