package scene

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/scenecore/scenecore/internal/core/ecs"
	"github.com/scenecore/scenecore/internal/geom"
)

var (
	ErrInvalidEntity = errors.New("scene: invalid entity")
	ErrSelfParent    = errors.New("scene: entity cannot parent itself")
	ErrUnknownEntity = errors.New("scene: unknown entity")
	ErrCycle         = errors.New("scene: parenting would create a cycle")
)

// Graph owns every Object and the parent/child adjacency between them.
// Accessed only from the scene goroutine, so there are no locks.
type Graph struct {
	objects  map[ecs.EntityID]*Object
	names    map[string][]ecs.EntityID // folded name → objects in registration order
	fold     cases.Caser
	meshes   MeshSource
	revision uint64
	log      *zap.Logger
}

func NewGraph(capacity int, log *zap.Logger) *Graph {
	if log == nil {
		log = zap.NewNop()
	}
	return &Graph{
		objects: make(map[ecs.EntityID]*Object, capacity),
		names:   make(map[string][]ecs.EntityID, capacity),
		fold:    cases.Fold(),
		log:     log,
	}
}

// SetMeshSource sets the resolver used for named meshes in LoadComponent.
func (g *Graph) SetMeshSource(src MeshSource) { g.meshes = src }

// Revision increases on every structural, transform or geometry mutation.
func (g *Graph) Revision() uint64 { return g.revision }

func (g *Graph) touch() { g.revision++ }

func (g *Graph) Len() int { return len(g.objects) }

// AddObject inserts a fully built object under its id. It reports false for
// invalid ids and ids already present. World poses are not recomputed.
func (g *Graph) AddObject(o *Object) bool {
	if o == nil || !o.ID.Valid() {
		return false
	}
	if _, ok := g.objects[o.ID]; ok {
		return false
	}
	g.objects[o.ID] = o
	g.indexName(o)
	g.touch()
	return true
}

// TryGet returns the object for id without creating one.
func (g *Graph) TryGet(id ecs.EntityID) (*Object, bool) {
	o, ok := g.objects[id]
	return o, ok
}

// GetOrCreate returns the object for id, creating an empty unparented one
// when missing. Returns nil for InvalidEntity and AllEntities.
func (g *Graph) GetOrCreate(id ecs.EntityID) *Object {
	if !id.Valid() {
		return nil
	}
	if o, ok := g.objects[id]; ok {
		return o
	}
	o := NewObject(id, "")
	g.objects[id] = o
	g.touch()
	return o
}

// FindEntity looks an object up by name, ignoring case. When several
// objects share a name the earliest registered survivor wins. Returns
// InvalidEntity when nothing matches.
func (g *Graph) FindEntity(name string) ecs.EntityID {
	if name == "" {
		return ecs.InvalidEntity
	}
	if ids := g.names[g.fold.String(name)]; len(ids) > 0 {
		return ids[0]
	}
	return ecs.InvalidEntity
}

// Rename changes an object's name and keeps the name index in step.
func (g *Graph) Rename(id ecs.EntityID, name string) bool {
	o, ok := g.objects[id]
	if !ok {
		return false
	}
	g.unindexName(o)
	o.Name = name
	g.indexName(o)
	return true
}

func (g *Graph) indexName(o *Object) {
	if o.Name == "" {
		return
	}
	key := g.fold.String(o.Name)
	if !slices.Contains(g.names[key], o.ID) {
		g.names[key] = append(g.names[key], o.ID)
	}
}

func (g *Graph) unindexName(o *Object) {
	if o.Name == "" {
		return
	}
	key := g.fold.String(o.Name)
	ids := slices.DeleteFunc(g.names[key], func(id ecs.EntityID) bool { return id == o.ID })
	if len(ids) == 0 {
		delete(g.names, key)
		return
	}
	g.names[key] = ids
}

// AddChild makes child a child of parent and recomputes world poses from
// parent down. parent == InvalidEntity re-roots child. A child that already
// has a different parent is detached from it first.
func (g *Graph) AddChild(parent, child ecs.EntityID) error {
	if !child.Valid() || parent == ecs.AllEntities {
		return fmt.Errorf("add child %d to %d: %w", child, parent, ErrInvalidEntity)
	}
	if parent == child {
		return fmt.Errorf("add child %d: %w", child, ErrSelfParent)
	}
	co, ok := g.objects[child]
	if !ok {
		return fmt.Errorf("add child %d: %w", child, ErrUnknownEntity)
	}
	if parent == ecs.InvalidEntity {
		g.detach(co)
		g.recalculateWorldTransform(child)
		g.touch()
		return nil
	}
	po, ok := g.objects[parent]
	if !ok {
		return fmt.Errorf("add child %d to %d: %w", child, parent, ErrUnknownEntity)
	}
	// A walk longer than the graph means the ancestors already loop.
	for a, steps := po.Parent, 0; a.Valid(); steps++ {
		if a == child || steps > len(g.objects) {
			return fmt.Errorf("add child %d to %d: %w", child, parent, ErrCycle)
		}
		ao, ok := g.objects[a]
		if !ok {
			break
		}
		a = ao.Parent
	}

	if co.Parent != parent {
		g.detach(co)
	}
	if !po.hasChild(child) {
		po.Children = append(po.Children, child)
	}
	co.Parent = parent
	g.recalculateWorldTransform(parent)
	g.touch()
	return nil
}

// RemoveChildFromParent detaches child from its parent and recomputes it as
// a root.
func (g *Graph) RemoveChildFromParent(child ecs.EntityID) error {
	if !child.Valid() {
		return fmt.Errorf("remove child %d: %w", child, ErrInvalidEntity)
	}
	co, ok := g.objects[child]
	if !ok {
		return fmt.Errorf("remove child %d: %w", child, ErrUnknownEntity)
	}
	g.detach(co)
	g.recalculateWorldTransform(child)
	g.touch()
	return nil
}

func (g *Graph) detach(co *Object) {
	if co.Parent == ecs.InvalidEntity {
		return
	}
	if po, ok := g.objects[co.Parent]; ok {
		po.removeChild(co.ID)
	}
	co.Parent = ecs.InvalidEntity
}

// recalculateWorldTransform sets world = parent.world ∘ local (or local for
// roots) for id and its subtree, pre-order with children in list order.
// Children lists edited into a loop stop the walk after every object has
// been visited once.
func (g *Graph) recalculateWorldTransform(id ecs.EntityID) {
	stack := []ecs.EntityID{id}
	for steps := 0; len(stack) > 0; steps++ {
		if steps > len(g.objects) {
			g.log.Warn("parent/child cycle below entity", zap.Uint64("entity", uint64(id)))
			return
		}
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		o, ok := g.objects[cur]
		if !ok {
			continue
		}
		if po, ok := g.objects[o.Parent]; ok && o.Parent != ecs.InvalidEntity {
			o.WorldPose = po.WorldPose.Mul(o.LocalPose)
		} else {
			o.WorldPose = o.LocalPose
		}
		for i := len(o.Children) - 1; i >= 0; i-- {
			stack = append(stack, o.Children[i])
		}
	}
}

// SetLocalPose writes id's local pose and recomputes its subtree.
func (g *Graph) SetLocalPose(id ecs.EntityID, pose geom.Pose) bool {
	o, ok := g.objects[id]
	if !ok {
		return false
	}
	o.LocalPose = pose
	g.recalculateWorldTransform(id)
	g.touch()
	return true
}

// SetLocalScale writes id's local scale. Scale only affects the object's own
// geometry, so no poses change.
func (g *Graph) SetLocalScale(id ecs.EntityID, scale mgl32.Vec3) bool {
	o, ok := g.objects[id]
	if !ok {
		return false
	}
	o.LocalScale = scale
	g.touch()
	return true
}

// SetGeometry attaches geometry to id, replacing any previous geometry.
func (g *Graph) SetGeometry(id ecs.EntityID, geo Geometry) bool {
	o, ok := g.objects[id]
	if !ok {
		return false
	}
	SetComponent(o, geo)
	g.touch()
	return true
}

// Destroy removes id and its whole subtree.
func (g *Graph) Destroy(id ecs.EntityID) error {
	_, err := g.DestroyWithList(id)
	return err
}

// DestroyWithList removes id and every descendant, children before parents,
// and returns the destroyed ids in that order so dependent systems can purge
// their per-entity state. AllEntities empties the graph. Unknown ids destroy
// nothing.
func (g *Graph) DestroyWithList(id ecs.EntityID) ([]ecs.EntityID, error) {
	if id == ecs.InvalidEntity {
		return nil, fmt.Errorf("destroy: %w", ErrInvalidEntity)
	}
	if id == ecs.AllEntities {
		return g.destroyAll(), nil
	}
	o, ok := g.objects[id]
	if !ok {
		return nil, nil
	}
	g.detach(o)
	var out []ecs.EntityID
	g.destroySubtree(id, &out)
	g.touch()
	g.log.Debug("destroyed subtree",
		zap.Uint64("root", uint64(id)),
		zap.Int("count", len(out)),
	)
	return out, nil
}

func (g *Graph) destroySubtree(id ecs.EntityID, out *[]ecs.EntityID) {
	o, ok := g.objects[id]
	if !ok {
		return
	}
	// Unlink first so a corrupt adjacency cycle cannot recurse forever.
	delete(g.objects, id)
	for _, c := range o.Children {
		g.destroySubtree(c, out)
	}
	g.unindexName(o)
	*out = append(*out, id)
}

func (g *Graph) destroyAll() []ecs.EntityID {
	out := make([]ecs.EntityID, 0, len(g.objects))
	for _, root := range g.Roots() {
		g.destroySubtree(root, &out)
	}
	// Whatever is left only hangs off a parent cycle.
	for _, id := range g.IDs() {
		g.destroySubtree(id, &out)
	}
	g.touch()
	g.log.Debug("destroyed all objects", zap.Int("count", len(out)))
	return out
}

// FixParentChildOrphans repairs adjacency after edits that set Parent
// without touching the parent's Children list: missing links are appended,
// links to parents that no longer exist are cleared, and list entries whose
// object claims another parent are dropped. A loop of Parent links is cut by
// making its lowest id a root. Returns the number of repairs.
func (g *Graph) FixParentChildOrphans() int {
	repairs := 0
	for _, id := range g.IDs() {
		o := g.objects[id]
		kept := o.Children[:0]
		for _, c := range o.Children {
			if co, ok := g.objects[c]; ok && co.Parent == id && !slices.Contains(kept, c) {
				kept = append(kept, c)
				continue
			}
			repairs++
		}
		o.Children = kept
	}
	for _, id := range g.IDs() {
		o := g.objects[id]
		if o.Parent == ecs.InvalidEntity {
			continue
		}
		po, ok := g.objects[o.Parent]
		if !ok || o.Parent == id {
			o.Parent = ecs.InvalidEntity
			repairs++
			continue
		}
		if !po.hasChild(id) {
			po.Children = append(po.Children, id)
			repairs++
		}
	}
	repairs += g.breakParentCycles()
	if repairs > 0 {
		g.log.Warn("repaired parent/child links", zap.Int("repairs", repairs))
		g.Refresh()
		g.touch()
	}
	return repairs
}

// breakParentCycles walks every Parent chain once. Every Parent must already
// name a live object or be InvalidEntity.
func (g *Graph) breakParentCycles() int {
	const (
		onPath = 1
		done   = 2
	)
	state := make(map[ecs.EntityID]uint8, len(g.objects))
	cut := 0
	for _, id := range g.IDs() {
		var path []ecs.EntityID
		cur := id
		for cur.Valid() && state[cur] == 0 {
			state[cur] = onPath
			path = append(path, cur)
			cur = g.objects[cur].Parent
		}
		if cur.Valid() && state[cur] == onPath {
			root := slices.Min(path[slices.Index(path, cur):])
			ro := g.objects[root]
			g.objects[ro.Parent].removeChild(root)
			ro.Parent = ecs.InvalidEntity
			cut++
		}
		for _, p := range path {
			state[p] = done
		}
	}
	return cut
}

// Refresh recomputes every root subtree.
func (g *Graph) Refresh() {
	for _, root := range g.Roots() {
		g.recalculateWorldTransform(root)
	}
}

// Roots returns the ids of objects without a live parent, in id order.
func (g *Graph) Roots() []ecs.EntityID {
	var out []ecs.EntityID
	for id, o := range g.objects {
		if o.Parent == ecs.InvalidEntity {
			out = append(out, id)
			continue
		}
		if _, ok := g.objects[o.Parent]; !ok {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// IDs returns every object id in ascending order.
func (g *Graph) IDs() []ecs.EntityID {
	out := make([]ecs.EntityID, 0, len(g.objects))
	for id := range g.objects {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Each visits objects in id order. fn must not add or destroy objects.
func (g *Graph) Each(fn func(*Object)) {
	for _, id := range g.IDs() {
		fn(g.objects[id])
	}
}
