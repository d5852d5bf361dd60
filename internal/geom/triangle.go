package geom

import "github.com/go-gl/mathgl/mgl32"

const triangleEpsilon = 1e-8

// IntersectTriangle is the Möller–Trumbore test. It returns the ray
// parameter and the barycentric u, v of the hit. With cullBack set, triangles
// whose counter-clockwise normal faces away from the ray are ignored.
func IntersectTriangle(r Ray, a, b, c mgl32.Vec3, cullBack bool) (t, u, v float32, ok bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if cullBack {
		if det < triangleEpsilon {
			return 0, 0, 0, false
		}
	} else if det > -triangleEpsilon && det < triangleEpsilon {
		return 0, 0, 0, false
	}
	invDet := 1 / det

	s := r.Origin.Sub(a)
	u = s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}
	q := s.Cross(e1)
	v = r.Direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}
	t = e2.Dot(q) * invDet
	if t <= triangleEpsilon {
		return 0, 0, 0, false
	}
	return t, u, v, true
}

// IntersectMesh returns the closest triangle hit of r against a mesh. With
// no indices, consecutive vertex triples form triangles. Distance is the ray
// parameter, Normal the normalized geometric normal in mesh space, UV the
// barycentric coordinates.
func IntersectMesh(r Ray, vertices []mgl32.Vec3, indices []uint32, cullBack bool) Hit {
	best := Hit{}
	test := func(a, b, c mgl32.Vec3) {
		t, u, v, ok := IntersectTriangle(r, a, b, c, cullBack)
		if !ok || (best.Hit && t >= best.Distance) {
			return
		}
		best = Hit{
			Hit:      true,
			Distance: t,
			Normal:   b.Sub(a).Cross(c.Sub(a)).Normalize(),
			UV:       mgl32.Vec2{u, v},
		}
	}
	if len(indices) == 0 {
		for i := 0; i+2 < len(vertices); i += 3 {
			test(vertices[i], vertices[i+1], vertices[i+2])
		}
		return best
	}
	n := uint32(len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if i0 >= n || i1 >= n || i2 >= n {
			continue
		}
		test(vertices[i0], vertices[i1], vertices[i2])
	}
	return best
}
