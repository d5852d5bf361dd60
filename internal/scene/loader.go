package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/scenecore/scenecore/internal/core/ecs"
)

// geometryDoc is the runtime-decoded form of a Geometry component: either a
// named mesh resolved through the MeshSource, or inline data.
type geometryDoc struct {
	Mesh     string       `yaml:"mesh"`
	Vertices [][3]float32 `yaml:"vertices"`
	Indices  []uint32     `yaml:"indices"`
}

var _ ecs.ComponentLoader = (*Graph)(nil)

// LoadComponent accepts components routed by ecs.Systems. The graph owns
// "geometry".
func (g *Graph) LoadComponent(id ecs.EntityID, name string, decode func(any) error) error {
	if name != ecs.ComponentName[Geometry]() {
		return fmt.Errorf("scene: component %q: %w", name, ecs.ErrUnroutable)
	}
	if _, ok := g.objects[id]; !ok {
		return fmt.Errorf("load geometry for %d: %w", id, ErrUnknownEntity)
	}
	var doc geometryDoc
	if err := decode(&doc); err != nil {
		return fmt.Errorf("decode geometry for %d: %w", id, err)
	}

	var geo Geometry
	switch {
	case len(doc.Vertices) > 0:
		geo = Geometry{Mesh: doc.Mesh, Indices: doc.Indices}
		geo.Vertices = make([]mgl32.Vec3, len(doc.Vertices))
		for i, v := range doc.Vertices {
			geo.Vertices[i] = mgl32.Vec3(v)
		}
	case doc.Mesh != "":
		if g.meshes == nil {
			return fmt.Errorf("geometry for %d: mesh %q: no mesh source", id, doc.Mesh)
		}
		m, ok := g.meshes.Mesh(doc.Mesh)
		if !ok {
			return fmt.Errorf("geometry for %d: unknown mesh %q", id, doc.Mesh)
		}
		geo = m
	default:
		return fmt.Errorf("geometry for %d: neither mesh nor vertices given", id)
	}
	g.SetGeometry(id, geo)
	return nil
}
