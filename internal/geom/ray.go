package geom

import "github.com/go-gl/mathgl/mgl32"

// Ray is a half-line. Query entry points normalize Direction so hit
// parameters are world distances; rays moved into a scaled local space keep
// an unnormalized direction so the parameter still measures world distance.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// NewRay returns a ray with a normalized direction.
func NewRay(origin, direction mgl32.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// ToLocal maps a world ray into the space of an object posed at world and
// scaled by scale: inverse pose first, then divide by scale.
func (r Ray) ToLocal(world Pose, scale mgl32.Vec3) Ray {
	inv := world.Inverse()
	return Ray{
		Origin:    DivElem(inv.TransformPoint(r.Origin), scale),
		Direction: DivElem(inv.TransformVector(r.Direction), scale),
	}
}

// Hit is the outbound result of an exact intersection.
type Hit struct {
	Hit      bool
	Distance float32
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}
