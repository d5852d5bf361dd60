package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scenecore/scenecore/internal/collision"
	"github.com/scenecore/scenecore/internal/core/ecs"
	"github.com/scenecore/scenecore/internal/geom"
	"github.com/scenecore/scenecore/internal/scene"
)

const demoScene = `
meshes:
  - name: quad
    vertices: [[-1,-1,0],[1,-1,0],[1,1,0],[-1,1,0]]
    indices: [0,1,2, 0,2,3]
  - name: panel
    vertices: [[-1,-1,0],[1,-1,0],[1,1,0],[-1,1,0]]
    indices: [0,1,2, 0,2,3]
entities:
  - name: door
    parent: house
    position: [0, 0, -2]
    components:
      geometry: { mesh: panel }
      collider: {}
  - name: house
    position: [0, 0, -1]
    rotation: [0, 0, 0]
    scale: [2, 2, 2]
  - name: marker
    components:
      geometry:
        vertices: [[0,0,0],[1,0,0],[0,1,0]]
`

type world struct {
	ecs       *ecs.World
	graph     *scene.Graph
	collision *collision.System
}

func newWorld() *world {
	w := &world{ecs: ecs.NewWorld(), graph: scene.NewGraph(0, zap.NewNop())}
	w.collision = collision.New(w.graph, 0, zap.NewNop())
	systems := w.ecs.Systems()
	ecs.CreateSystem(systems, w.graph)
	ecs.RegisterComponent[scene.Graph, scene.Geometry](systems)
	ecs.CreateSystem(systems, w.collision)
	ecs.RegisterComponent[collision.System, collision.Collider](systems)
	return w
}

func TestInstantiateScene(t *testing.T) {
	s, err := ParseScene([]byte(demoScene))
	require.NoError(t, err)
	w := newWorld()

	ids, err := s.Instantiate(w.ecs, w.graph)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	door, house, marker := ids[0], ids[1], ids[2]

	d, ok := w.graph.TryGet(door)
	require.True(t, ok)
	assert.Equal(t, house, d.Parent)
	assert.True(t, d.WorldPose.ApproxEqual(geom.NewPose(mgl32.Vec3{0, 0, -3}, mgl32.QuatIdent()), 1e-5))

	h, _ := w.graph.TryGet(house)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, h.LocalScale)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, d.LocalScale)

	geo, ok := scene.GetComponent[scene.Geometry](d)
	require.True(t, ok)
	assert.Equal(t, "panel", geo.Mesh)
	assert.Equal(t, 2, geo.TriangleCount())

	m, _ := w.graph.TryGet(marker)
	mgeo, ok := scene.GetComponent[scene.Geometry](m)
	require.True(t, ok)
	assert.Len(t, mgeo.Vertices, 3)

	assert.Equal(t, []ecs.EntityID{door}, w.collision.Collidables())
	res := w.collision.Raycast(geom.NewRay(mgl32.Vec3{0.5, 0.5, 0}, mgl32.Vec3{0, 0, -1}), collision.RaycastDoubleSided)
	require.True(t, res.Hit.Hit)
	assert.Equal(t, door, res.Entity)
	assert.InDelta(t, 3.0, res.Hit.Distance, 1e-5)
}

func TestMeshLibraryDeduplicates(t *testing.T) {
	s, err := ParseScene([]byte(demoScene))
	require.NoError(t, err)
	lib, err := s.MeshLibrary()
	require.NoError(t, err)
	assert.Equal(t, 2, lib.Len())
	assert.Equal(t, 1, lib.Unique())

	quad, ok := lib.Mesh("quad")
	require.True(t, ok)
	panel, ok := lib.Mesh("panel")
	require.True(t, ok)
	assert.Same(t, &quad.Vertices[0], &panel.Vertices[0])
	assert.Equal(t, "quad", quad.Mesh)
	assert.Equal(t, "panel", panel.Mesh)

	dup, err := lib.Add("flipped", []mgl32.Vec3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}}, []uint32{0, 2, 1, 0, 3, 2})
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, 2, lib.Unique())

	_, err = lib.Add("quad", []mgl32.Vec3{{0, 0, 0}}, nil)
	assert.Error(t, err)
	_, err = lib.Add("broken", []mgl32.Vec3{{0, 0, 0}}, []uint32{0, 1, 2})
	assert.Error(t, err)
	_, ok = lib.Mesh("missing")
	assert.False(t, ok)
}

func TestParseSceneRejectsBadReferences(t *testing.T) {
	_, err := ParseScene([]byte("entities:\n  - name: a\n    parent: b\n"))
	assert.ErrorContains(t, err, "unknown parent")

	_, err = ParseScene([]byte("entities:\n  - name: a\n  - name: a\n"))
	assert.ErrorContains(t, err, "used twice")

	_, err = ParseScene([]byte("entities: [\n"))
	assert.Error(t, err)
}

func TestInstantiateFailures(t *testing.T) {
	cyclic, err := ParseScene([]byte(`
entities:
  - name: a
    parent: b
  - name: b
    parent: a
`))
	require.NoError(t, err)
	_, err = cyclic.Instantiate(newWorld().ecs, scene.NewGraph(0, nil))
	assert.ErrorIs(t, err, scene.ErrCycle)

	unknown, err := ParseScene([]byte(`
entities:
  - name: a
    components:
      rigidbody: { mass: 3 }
`))
	require.NoError(t, err)
	w := newWorld()
	_, err = unknown.Instantiate(w.ecs, w.graph)
	assert.ErrorIs(t, err, ecs.ErrUnroutable)

	missingMesh, err := ParseScene([]byte(`
entities:
  - name: a
    components:
      geometry: { mesh: nothing }
`))
	require.NoError(t, err)
	w = newWorld()
	_, err = missingMesh.Instantiate(w.ecs, w.graph)
	assert.ErrorContains(t, err, "unknown mesh")
}

func TestLoadScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(demoScene), 0o644))
	s, err := LoadScene(path)
	require.NoError(t, err)
	assert.Len(t, s.Entities, 3)
	assert.Len(t, s.Meshes, 2)

	_, err = LoadScene(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
