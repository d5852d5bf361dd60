package geom

import "github.com/go-gl/mathgl/mgl32"

// Plane is n·p + D = 0 with a unit normal pointing into the kept half-space.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

func (p Plane) Distance(v mgl32.Vec3) float32 {
	return p.Normal.Dot(v) + p.D
}

// Frustum is the convex volume bounded by six inward-facing planes.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromMatrix extracts the planes of a projection*view matrix using
// OpenGL clip conventions (-w <= x,y,z <= w).
func FrustumFromMatrix(m mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)
	raw := [6]mgl32.Vec4{
		r3.Add(r0), // left
		r3.Sub(r0), // right
		r3.Add(r1), // bottom
		r3.Sub(r1), // top
		r3.Add(r2), // near
		r3.Sub(r2), // far
	}
	var f Frustum
	for i, pl := range raw {
		n := pl.Vec3()
		l := n.Len()
		if l == 0 {
			continue
		}
		f.Planes[i] = Plane{Normal: n.Mul(1 / l), D: pl[3] / l}
	}
	return f
}

func (f Frustum) ContainsPoint(v mgl32.Vec3) bool {
	for _, p := range f.Planes {
		if p.Distance(v) < 0 {
			return false
		}
	}
	return true
}

// IntersectsAABB is conservative: it may keep boxes near frustum corners that
// are actually outside, but never rejects a box that overlaps.
func (f Frustum) IntersectsAABB(b AABB) bool {
	if b.IsEmpty() {
		return false
	}
	for _, p := range f.Planes {
		var far mgl32.Vec3
		for i := 0; i < 3; i++ {
			if p.Normal[i] >= 0 {
				far[i] = b.Max[i]
			} else {
				far[i] = b.Min[i]
			}
		}
		if p.Distance(far) < 0 {
			return false
		}
	}
	return true
}
