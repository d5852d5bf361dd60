package data

import (
	"fmt"
	"os"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/scenecore/scenecore/internal/core/ecs"
	"github.com/scenecore/scenecore/internal/geom"
	"github.com/scenecore/scenecore/internal/scene"
)

// MeshEntry is a named mesh shared by entities through a geometry component.
type MeshEntry struct {
	Name     string       `yaml:"name"`
	Vertices [][3]float32 `yaml:"vertices"`
	Indices  []uint32     `yaml:"indices"`
}

// EntityEntry describes one scene object. Rotation is XYZ euler degrees.
// Components are kept undecoded and handed to the owning system.
type EntityEntry struct {
	Name       string               `yaml:"name"`
	Parent     string               `yaml:"parent"`
	Position   [3]float32           `yaml:"position"`
	Rotation   [3]float32           `yaml:"rotation"`
	Scale      *[3]float32          `yaml:"scale"`
	Components map[string]yaml.Node `yaml:"components"`
}

// Scene is a parsed scene description file.
type Scene struct {
	Meshes   []MeshEntry   `yaml:"meshes"`
	Entities []EntityEntry `yaml:"entities"`
}

// LoadScene loads a YAML scene description.
func LoadScene(path string) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	s, err := ParseScene(raw)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return s, nil
}

// ParseScene parses and validates a scene description.
func ParseScene(raw []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	names := make(map[string]struct{}, len(s.Entities))
	for i, e := range s.Entities {
		if e.Name == "" {
			continue
		}
		if _, dup := names[e.Name]; dup {
			return nil, fmt.Errorf("entity %d: name %q used twice", i, e.Name)
		}
		names[e.Name] = struct{}{}
	}
	for _, e := range s.Entities {
		if e.Parent == "" {
			continue
		}
		if _, ok := names[e.Parent]; !ok {
			return nil, fmt.Errorf("entity %q: unknown parent %q", e.Name, e.Parent)
		}
	}
	return &s, nil
}

// MeshLibrary builds the deduplicated mesh library of the scene.
func (s *Scene) MeshLibrary() (*MeshLibrary, error) {
	lib := NewMeshLibrary()
	for _, m := range s.Meshes {
		verts := make([]mgl32.Vec3, len(m.Vertices))
		for i, v := range m.Vertices {
			verts[i] = mgl32.Vec3(v)
		}
		if _, err := lib.Add(m.Name, verts, m.Indices); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

// Instantiate creates every entity of the scene in world and graph, links
// parents by name and routes each component to the system registered for
// its name. World poses are refreshed before returning. The created ids are
// returned in file order.
func (s *Scene) Instantiate(world *ecs.World, graph *scene.Graph) ([]ecs.EntityID, error) {
	lib, err := s.MeshLibrary()
	if err != nil {
		return nil, err
	}
	graph.SetMeshSource(lib)

	ids := make([]ecs.EntityID, len(s.Entities))
	byName := make(map[string]ecs.EntityID, len(s.Entities))
	for i, e := range s.Entities {
		id := world.CreateEntity()
		o := scene.NewObject(id, e.Name)
		o.LocalPose = geom.PoseFromEuler(mgl32.Vec3(e.Position), e.Rotation[0], e.Rotation[1], e.Rotation[2])
		if e.Scale != nil {
			o.LocalScale = mgl32.Vec3(*e.Scale)
		}
		graph.AddObject(o)
		ids[i] = id
		if e.Name != "" {
			byName[e.Name] = id
		}
	}

	for i, e := range s.Entities {
		if e.Parent == "" {
			continue
		}
		if err := graph.AddChild(byName[e.Parent], ids[i]); err != nil {
			return nil, fmt.Errorf("entity %q: %w", e.Name, err)
		}
	}

	for i, e := range s.Entities {
		names := make([]string, 0, len(e.Components))
		for name := range e.Components {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			node := e.Components[name]
			if err := world.Systems().Route(ids[i], name, node.Decode); err != nil {
				return nil, fmt.Errorf("entity %q: %w", e.Name, err)
			}
		}
	}

	graph.Refresh()
	return ids, nil
}
