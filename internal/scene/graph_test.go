package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scenecore/scenecore/internal/core/ecs"
	"github.com/scenecore/scenecore/internal/geom"
)

const eps = 1e-4

func newTestGraph(t *testing.T, ids ...ecs.EntityID) *Graph {
	t.Helper()
	g := NewGraph(len(ids), zap.NewNop())
	for _, id := range ids {
		require.True(t, g.AddObject(NewObject(id, "")))
	}
	return g
}

func TestWorldTransformComposition(t *testing.T) {
	g := newTestGraph(t, 1, 2, 3)
	pr := geom.PoseFromEuler(mgl32.Vec3{10, 0, 0}, 0, 90, 0)
	p1 := geom.PoseFromEuler(mgl32.Vec3{0, 2, 0}, 45, 0, 0)
	p2 := geom.PoseFromEuler(mgl32.Vec3{0, 0, -3}, 0, 0, 30)

	r, _ := g.TryGet(1)
	c1, _ := g.TryGet(2)
	c2, _ := g.TryGet(3)
	r.LocalPose, c1.LocalPose, c2.LocalPose = pr, p1, p2

	require.NoError(t, g.AddChild(1, 2))
	require.NoError(t, g.AddChild(2, 3))
	g.Refresh()

	assert.True(t, r.WorldPose.ApproxEqual(pr, eps))
	assert.True(t, c1.WorldPose.ApproxEqual(pr.Mul(p1), eps))
	assert.True(t, c2.WorldPose.ApproxEqual(pr.Mul(p1).Mul(p2), eps))
}

func TestSetLocalPosePropagatesToSubtree(t *testing.T) {
	g := newTestGraph(t, 1, 2)
	require.NoError(t, g.AddChild(1, 2))
	child, _ := g.TryGet(2)
	child.LocalPose = geom.NewPose(mgl32.Vec3{1, 0, 0}, mgl32.QuatIdent())

	rev := g.Revision()
	require.True(t, g.SetLocalPose(1, geom.NewPose(mgl32.Vec3{0, 5, 0}, mgl32.QuatIdent())))
	assert.Greater(t, g.Revision(), rev)
	assert.True(t, child.WorldPose.Position.ApproxEqualThreshold(mgl32.Vec3{1, 5, 0}, eps))
	assert.False(t, g.SetLocalPose(99, geom.IdentityPose()))
}

func TestAddChildRejectsBadArguments(t *testing.T) {
	g := newTestGraph(t, 1, 2, 3)

	assert.True(t, errors.Is(g.AddChild(1, 1), ErrSelfParent))
	assert.True(t, errors.Is(g.AddChild(1, ecs.InvalidEntity), ErrInvalidEntity))
	assert.True(t, errors.Is(g.AddChild(ecs.AllEntities, 2), ErrInvalidEntity))
	assert.True(t, errors.Is(g.AddChild(1, 42), ErrUnknownEntity))
	assert.True(t, errors.Is(g.AddChild(42, 1), ErrUnknownEntity))

	require.NoError(t, g.AddChild(1, 2))
	require.NoError(t, g.AddChild(2, 3))
	assert.True(t, errors.Is(g.AddChild(3, 1), ErrCycle))
}

func TestAddChildReparentsAndReroots(t *testing.T) {
	g := newTestGraph(t, 1, 2, 3)
	require.NoError(t, g.AddChild(1, 3))
	require.NoError(t, g.AddChild(1, 3)) // no duplicate link
	p1, _ := g.TryGet(1)
	assert.Equal(t, []ecs.EntityID{3}, p1.Children)

	require.NoError(t, g.AddChild(2, 3))
	p2, _ := g.TryGet(2)
	c, _ := g.TryGet(3)
	assert.Empty(t, p1.Children)
	assert.Equal(t, []ecs.EntityID{3}, p2.Children)
	assert.Equal(t, ecs.EntityID(2), c.Parent)

	require.NoError(t, g.AddChild(ecs.InvalidEntity, 3))
	assert.True(t, c.IsRoot())
	assert.Empty(t, p2.Children)
}

func TestRemoveChildFromParent(t *testing.T) {
	g := newTestGraph(t, 1, 2)
	root, _ := g.TryGet(1)
	root.LocalPose = geom.NewPose(mgl32.Vec3{0, 0, 7}, mgl32.QuatIdent())
	require.NoError(t, g.AddChild(1, 2))
	child, _ := g.TryGet(2)
	assert.InDelta(t, 7, child.WorldPose.Position.Z(), eps)

	require.NoError(t, g.RemoveChildFromParent(2))
	assert.True(t, child.IsRoot())
	assert.Empty(t, root.Children)
	assert.True(t, child.WorldPose.ApproxEqual(child.LocalPose, eps))

	assert.True(t, errors.Is(g.RemoveChildFromParent(ecs.InvalidEntity), ErrInvalidEntity))
	assert.True(t, errors.Is(g.RemoveChildFromParent(77), ErrUnknownEntity))
}

func TestDestroyWithListReturnsWholeSubtree(t *testing.T) {
	g := newTestGraph(t, 1, 2, 3, 4, 5, 6)
	require.NoError(t, g.AddChild(1, 2))
	require.NoError(t, g.AddChild(1, 3))
	require.NoError(t, g.AddChild(2, 4))
	require.NoError(t, g.AddChild(4, 5))
	// 6 stays outside the subtree.

	destroyed, err := g.DestroyWithList(2)
	require.NoError(t, err)
	assert.Equal(t, []ecs.EntityID{5, 4, 2}, destroyed, "children before parents")
	for _, id := range destroyed {
		_, ok := g.TryGet(id)
		assert.False(t, ok, "id %d still resolves", id)
	}
	root, _ := g.TryGet(1)
	assert.Equal(t, []ecs.EntityID{3}, root.Children)

	destroyed, err = g.DestroyWithList(1)
	require.NoError(t, err)
	assert.Len(t, destroyed, 2)
	assert.Equal(t, 1, g.Len())
}

func TestDestroySentinels(t *testing.T) {
	g := newTestGraph(t, 1, 2, 3)
	require.NoError(t, g.AddChild(1, 2))

	_, err := g.DestroyWithList(ecs.InvalidEntity)
	assert.True(t, errors.Is(err, ErrInvalidEntity))

	none, err := g.DestroyWithList(99)
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := g.DestroyWithList(ecs.AllEntities)
	require.NoError(t, err)
	assert.ElementsMatch(t, []ecs.EntityID{1, 2, 3}, all)
	assert.Equal(t, 0, g.Len())
}

func TestTryGetDoesNotVivify(t *testing.T) {
	g := newTestGraph(t)
	_, ok := g.TryGet(5)
	assert.False(t, ok)
	assert.Equal(t, 0, g.Len())

	o := g.GetOrCreate(5)
	require.NotNil(t, o)
	assert.Equal(t, ecs.EntityID(5), o.ID)
	assert.Same(t, o, g.GetOrCreate(5))
	assert.Nil(t, g.GetOrCreate(ecs.InvalidEntity))
	assert.Equal(t, 1, g.Len())
}

func TestFixParentChildOrphans(t *testing.T) {
	g := newTestGraph(t, 1, 2, 3, 4)
	p, _ := g.TryGet(1)
	p.LocalPose = geom.NewPose(mgl32.Vec3{1, 1, 1}, mgl32.QuatIdent())

	c, _ := g.TryGet(2)
	c.Parent = 1 // set without the adjacency update
	dangling, _ := g.TryGet(3)
	dangling.Parent = 50
	stale, _ := g.TryGet(4)
	p.Children = append(p.Children, 4) // listed but claims no parent
	_ = stale

	assert.Equal(t, 3, g.FixParentChildOrphans())
	assert.Equal(t, []ecs.EntityID{2}, p.Children)
	assert.True(t, dangling.IsRoot())
	assert.True(t, c.WorldPose.Position.ApproxEqualThreshold(mgl32.Vec3{1, 1, 1}, eps))
	assert.Equal(t, 0, g.FixParentChildOrphans())
}

func TestFixParentChildOrphansBreaksParentLoop(t *testing.T) {
	g := newTestGraph(t, 1, 2, 3)
	a, _ := g.TryGet(1)
	b, _ := g.TryGet(2)
	a.Parent, b.Parent = 2, 1

	// Two missing links appended, then the loop cut at its lowest id.
	assert.Equal(t, 3, g.FixParentChildOrphans())
	assert.True(t, a.IsRoot())
	assert.Equal(t, ecs.EntityID(1), b.Parent)
	assert.Equal(t, []ecs.EntityID{2}, a.Children)
	assert.Empty(t, b.Children)
	assert.Equal(t, []ecs.EntityID{1, 3}, g.Roots())

	require.True(t, g.SetLocalPose(1, geom.NewPose(mgl32.Vec3{1, 0, 0}, mgl32.QuatIdent())))
	assert.True(t, b.WorldPose.Position.ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, eps))
	assert.Equal(t, 0, g.FixParentChildOrphans())
}

func TestLoopedHierarchyDoesNotHang(t *testing.T) {
	g := newTestGraph(t, 1, 2, 3)
	a, _ := g.TryGet(1)
	b, _ := g.TryGet(2)
	a.Parent, b.Parent = 2, 1
	a.Children, b.Children = []ecs.EntityID{2}, []ecs.EntityID{1}

	err := g.AddChild(1, 3)
	assert.True(t, errors.Is(err, ErrCycle))
	c, _ := g.TryGet(3)
	assert.True(t, c.IsRoot())

	assert.True(t, g.SetLocalPose(1, geom.NewPose(mgl32.Vec3{0, 2, 0}, mgl32.QuatIdent())))

	ids, err := g.DestroyWithList(1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []ecs.EntityID{1, 2}, ids)
}

func TestFindEntityIgnoresCase(t *testing.T) {
	g := newTestGraph(t)
	g.AddObject(NewObject(1, "Camera"))
	g.AddObject(NewObject(2, "Ärger"))
	g.AddObject(NewObject(3, "camera")) // shared name; first wins

	assert.Equal(t, ecs.EntityID(1), g.FindEntity("CAMERA"))
	assert.Equal(t, ecs.EntityID(2), g.FindEntity("äRGER"))
	assert.Equal(t, ecs.InvalidEntity, g.FindEntity("light"))
	assert.Equal(t, ecs.InvalidEntity, g.FindEntity(""))

	require.True(t, g.Rename(1, "MainCamera"))
	assert.Equal(t, ecs.EntityID(1), g.FindEntity("maincamera"))
	assert.Equal(t, ecs.EntityID(3), g.FindEntity("camera"))

	require.NoError(t, g.Destroy(2))
	assert.Equal(t, ecs.InvalidEntity, g.FindEntity("ärger"))
}

func TestFindEntitySurvivesDestroyOfNamesake(t *testing.T) {
	g := newTestGraph(t)
	require.True(t, g.AddObject(NewObject(1, "Camera")))
	require.True(t, g.AddObject(NewObject(2, "camera")))

	require.NoError(t, g.Destroy(1))
	assert.Equal(t, ecs.EntityID(2), g.FindEntity("CAMERA"))

	require.True(t, g.Rename(2, "Light"))
	assert.Equal(t, ecs.InvalidEntity, g.FindEntity("camera"))
	assert.Equal(t, ecs.EntityID(2), g.FindEntity("light"))
}

func TestComponents(t *testing.T) {
	type Tag struct{ Label string }
	o := NewObject(1, "")
	assert.False(t, HasComponent[Tag](o))

	SetComponent(o, Tag{Label: "a"})
	got, ok := GetComponent[Tag](o)
	require.True(t, ok)
	assert.Equal(t, "a", got.Label)

	SetComponent(o, Tag{Label: "b"})
	got, _ = GetComponent[Tag](o)
	assert.Equal(t, "b", got.Label)
	assert.Equal(t, 1, o.ComponentCount())

	assert.True(t, RemoveComponent[Tag](o))
	assert.False(t, RemoveComponent[Tag](o))
}

type meshMap map[string]Geometry

func (m meshMap) Mesh(name string) (Geometry, bool) {
	g, ok := m[name]
	return g, ok
}

func TestLoadComponentGeometry(t *testing.T) {
	g := newTestGraph(t, 1, 2)
	g.SetMeshSource(meshMap{"tri": {Mesh: "tri", Vertices: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}}})

	err := g.LoadComponent(1, "geometry", func(v any) error {
		v.(*geometryDoc).Mesh = "tri"
		return nil
	})
	require.NoError(t, err)
	o, _ := g.TryGet(1)
	geo, ok := GetComponent[Geometry](o)
	require.True(t, ok)
	assert.Equal(t, 1, geo.TriangleCount())

	err = g.LoadComponent(2, "geometry", func(v any) error {
		v.(*geometryDoc).Vertices = [][3]float32{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}}
		return nil
	})
	require.NoError(t, err)
	o, _ = g.TryGet(2)
	geo, _ = GetComponent[Geometry](o)
	assert.Equal(t, mgl32.Vec3{2, 2, 0}, geo.LocalBounds().Max)

	assert.True(t, errors.Is(g.LoadComponent(9, "geometry", func(any) error { return nil }), ErrUnknownEntity))
	assert.Error(t, g.LoadComponent(1, "geometry", func(v any) error {
		v.(*geometryDoc).Mesh = "missing"
		return nil
	}))
}

func TestGeometryWorldBounds(t *testing.T) {
	geo := Geometry{Vertices: []mgl32.Vec3{{-1, -1, -1}, {1, 1, 1}}}
	o := NewObject(1, "")
	o.WorldPose = geom.NewPose(mgl32.Vec3{10, 0, 0}, mgl32.QuatIdent())
	o.LocalScale = mgl32.Vec3{2, 1, 1}
	b := geo.WorldBounds(o.WorldMatrix())
	assert.True(t, b.Min.ApproxEqualThreshold(mgl32.Vec3{8, -1, -1}, eps))
	assert.True(t, b.Max.ApproxEqualThreshold(mgl32.Vec3{12, 1, 1}, eps))
}
