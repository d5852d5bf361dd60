// Package geom holds the value types shared by the scene graph and the
// spatial index: rigid poses, rays, bounding boxes, frusta and the exact
// ray/triangle test. Everything is built on mgl32 and is allocation free.
package geom

import "github.com/go-gl/mathgl/mgl32"

// Pose is a rigid transform: a rotation followed by a translation.
// Scale is kept separately on scene objects and never composed into poses.
type Pose struct {
	Position    mgl32.Vec3
	Orientation mgl32.Quat
}

func IdentityPose() Pose {
	return Pose{Orientation: mgl32.QuatIdent()}
}

func NewPose(position mgl32.Vec3, orientation mgl32.Quat) Pose {
	return Pose{Position: position, Orientation: orientation}
}

// PoseFromEuler builds a pose from a position and XYZ euler angles in degrees.
func PoseFromEuler(position mgl32.Vec3, degX, degY, degZ float32) Pose {
	q := mgl32.AnglesToQuat(mgl32.DegToRad(degX), mgl32.DegToRad(degY), mgl32.DegToRad(degZ), mgl32.XYZ)
	return Pose{Position: position, Orientation: q}
}

// Rotation returns the orientation, treating the zero quaternion as identity
// so zero-valued poses behave.
func (p Pose) Rotation() mgl32.Quat {
	if p.Orientation == (mgl32.Quat{}) {
		return mgl32.QuatIdent()
	}
	return p.Orientation
}

// Mul composes p∘q: q is applied first, then p. For a parent world pose p and
// a child local pose q this yields the child's world pose.
func (p Pose) Mul(q Pose) Pose {
	r := p.Rotation()
	return Pose{
		Position:    p.Position.Add(r.Rotate(q.Position)),
		Orientation: r.Mul(q.Rotation()).Normalize(),
	}
}

func (p Pose) Inverse() Pose {
	inv := p.Rotation().Inverse()
	return Pose{
		Position:    inv.Rotate(p.Position.Mul(-1)),
		Orientation: inv,
	}
}

func (p Pose) TransformPoint(v mgl32.Vec3) mgl32.Vec3 {
	return p.Position.Add(p.Rotation().Rotate(v))
}

// TransformVector rotates v without translating it.
func (p Pose) TransformVector(v mgl32.Vec3) mgl32.Vec3 {
	return p.Rotation().Rotate(v)
}

// Mat4 returns the column-major model matrix of the pose.
func (p Pose) Mat4() mgl32.Mat4 {
	return mgl32.Translate3D(p.Position[0], p.Position[1], p.Position[2]).Mul4(p.Rotation().Mat4())
}

// ApproxEqual compares positions and orientations within eps. q and -q
// describe the same rotation and compare equal.
func (p Pose) ApproxEqual(o Pose, eps float32) bool {
	if !p.Position.ApproxEqualThreshold(o.Position, eps) {
		return false
	}
	a, b := p.Rotation(), o.Rotation()
	if a.ApproxEqualThreshold(b, eps) {
		return true
	}
	return a.ApproxEqualThreshold(b.Scale(-1), eps)
}

// DivElem divides a by b component-wise. Zero components of b yield
// infinities; callers guard degenerate scales.
func DivElem(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] / b[0], a[1] / b[1], a[2] / b[2]}
}
