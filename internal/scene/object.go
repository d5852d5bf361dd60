package scene

import (
	"reflect"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/scenecore/scenecore/internal/core/ecs"
	"github.com/scenecore/scenecore/internal/geom"
)

// Object is a scene graph node: a transform plus a typed component map,
// addressed by entity id. Parent and Children are ids resolved through the
// owning Graph, never pointers.
//
// WorldPose is derived. It is only meaningful after Graph.Refresh or a Graph
// mutation that recomputes the subtree; writing LocalPose directly leaves it
// stale until then.
type Object struct {
	ID         ecs.EntityID
	Name       string
	Parent     ecs.EntityID
	Children   []ecs.EntityID
	LocalPose  geom.Pose
	LocalScale mgl32.Vec3
	WorldPose  geom.Pose

	components map[reflect.Type]any
}

// NewObject returns an unparented object at the identity pose with unit scale.
func NewObject(id ecs.EntityID, name string) *Object {
	return &Object{
		ID:         id,
		Name:       name,
		LocalPose:  geom.IdentityPose(),
		LocalScale: mgl32.Vec3{1, 1, 1},
		WorldPose:  geom.IdentityPose(),
	}
}

func (o *Object) IsRoot() bool { return o.Parent == ecs.InvalidEntity }

func (o *Object) hasChild(id ecs.EntityID) bool {
	for _, c := range o.Children {
		if c == id {
			return true
		}
	}
	return false
}

func (o *Object) removeChild(id ecs.EntityID) bool {
	for i, c := range o.Children {
		if c == id {
			o.Children = append(o.Children[:i], o.Children[i+1:]...)
			return true
		}
	}
	return false
}

// WorldMatrix returns the full model matrix including local scale.
func (o *Object) WorldMatrix() mgl32.Mat4 {
	s := o.LocalScale
	return o.WorldPose.Mat4().Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// ComponentCount returns the number of attached components.
func (o *Object) ComponentCount() int { return len(o.components) }
