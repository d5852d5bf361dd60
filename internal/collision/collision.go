// Package collision keeps a spatial index over collidable entities and
// answers ray and frustum queries against their world-space geometry.
package collision

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/scenecore/scenecore/internal/bvh"
	"github.com/scenecore/scenecore/internal/core/ecs"
	"github.com/scenecore/scenecore/internal/core/event"
	"github.com/scenecore/scenecore/internal/geom"
	"github.com/scenecore/scenecore/internal/scene"
)

// RaycastMode selects which triangle faces the narrow phase accepts.
type RaycastMode int

const (
	RaycastDoubleSided RaycastMode = iota
	RaycastFrontFace
)

func (m RaycastMode) String() string {
	if m == RaycastFrontFace {
		return "front_face"
	}
	return "double_sided"
}

// ParseRaycastMode accepts the names produced by String.
func ParseRaycastMode(s string) (RaycastMode, error) {
	switch strings.ToLower(s) {
	case "", "double_sided":
		return RaycastDoubleSided, nil
	case "front_face":
		return RaycastFrontFace, nil
	}
	return RaycastDoubleSided, fmt.Errorf("unknown raycast mode %q", s)
}

// Result of a raycast. Entity is InvalidEntity on a miss.
type Result struct {
	Entity ecs.EntityID
	Hit    geom.Hit
	Point  mgl32.Vec3 // world-space hit position
}

// Collider is the scene-file component that marks an entity collidable.
type Collider struct {
	Disabled bool `yaml:"disabled"`
}

type Stats struct {
	Collidables int
	Builds      int
	Records     int
}

// System owns the collidable set and a lazily built BVH. It holds entity
// ids and derived boxes only; geometry is borrowed from the scene graph at
// build time. Geometry or transform edits that are not followed by
// QueueAccelerationRebuild leave queries running against stale boxes.
type System struct {
	graph       *scene.Graph
	collidables []ecs.EntityID
	members     map[ecs.EntityID]struct{}
	accel       *bvh.BVH // nil when a rebuild is queued
	tree        *bvh.BVH // storage reused across rebuilds
	builtRev    uint64
	leafSize    int
	builds      int
	scratch     []bvh.Candidate
	log         *zap.Logger
}

func New(graph *scene.Graph, leafSize int, log *zap.Logger) *System {
	if log == nil {
		log = zap.NewNop()
	}
	return &System{
		graph:    graph,
		members:  make(map[ecs.EntityID]struct{}),
		leafSize: leafSize,
		log:      log,
	}
}

// AddCollidable registers e. Registering twice is a no-op.
func (s *System) AddCollidable(e ecs.EntityID) bool {
	if !e.Valid() {
		return false
	}
	if _, ok := s.members[e]; ok {
		return false
	}
	s.members[e] = struct{}{}
	s.collidables = append(s.collidables, e)
	s.QueueAccelerationRebuild()
	return true
}

// RemoveCollidable unregisters e. Removing an unknown id is a no-op.
func (s *System) RemoveCollidable(e ecs.EntityID) bool {
	if _, ok := s.members[e]; !ok {
		return false
	}
	delete(s.members, e)
	for i, id := range s.collidables {
		if id == e {
			s.collidables = append(s.collidables[:i], s.collidables[i+1:]...)
			break
		}
	}
	s.QueueAccelerationRebuild()
	return true
}

func (s *System) IsCollidable(e ecs.EntityID) bool {
	_, ok := s.members[e]
	return ok
}

// Collidables returns the registered ids in registration order.
func (s *System) Collidables() []ecs.EntityID {
	out := make([]ecs.EntityID, len(s.collidables))
	copy(out, s.collidables)
	return out
}

// QueueAccelerationRebuild discards the BVH; the next query rebuilds it from
// scratch. There is no incremental update.
func (s *System) QueueAccelerationRebuild() {
	s.accel = nil
}

// HasAcceleration reports whether a built BVH is cached.
func (s *System) HasAcceleration() bool { return s.accel != nil }

// Stale reports whether the cached BVH is missing or was built at an older
// scene graph revision.
func (s *System) Stale() bool {
	return s.accel == nil || s.builtRev != s.graph.Revision()
}

// SetupAcceleration builds the BVH if none is cached: every collidable's
// vertices are scaled by its local scale, moved by its world pose and boxed.
// Collidables without an object or geometry are skipped.
func (s *System) SetupAcceleration() {
	if s.accel != nil {
		return
	}
	if s.tree == nil {
		s.tree = bvh.New(s.leafSize)
	} else {
		s.tree.Reset()
	}
	tree := s.tree
	for _, id := range s.collidables {
		o, geo, ok := s.lookup(id)
		if !ok {
			s.log.Debug("collidable skipped", zap.Uint64("entity", uint64(id)))
			continue
		}
		tree.Insert(geo.WorldBounds(o.WorldMatrix()), id)
	}
	tree.Build()
	s.accel = tree
	s.builtRev = s.graph.Revision()
	s.builds++
	s.log.Debug("acceleration built",
		zap.Int("records", tree.Len()),
		zap.Int("nodes", tree.NodeCount()),
		zap.Int("depth", tree.Depth()),
	)
}

func (s *System) lookup(id ecs.EntityID) (*scene.Object, *scene.Geometry, bool) {
	o, ok := s.graph.TryGet(id)
	if !ok {
		return nil, nil, false
	}
	geo, ok := scene.GetComponent[scene.Geometry](o)
	if !ok || len(geo.Vertices) == 0 {
		return nil, nil, false
	}
	return o, geo, true
}

func degenerate(scale mgl32.Vec3) bool {
	return scale[0] == 0 || scale[1] == 0 || scale[2] == 0
}

// Raycast returns the closest exact mesh hit along r. The broad phase
// collects every box the ray enters, in no particular order; the narrow
// phase tests each candidate's triangles in its local space and keeps the
// globally nearest hit. Box hits alone never produce a result.
func (s *System) Raycast(r geom.Ray, mode RaycastMode) Result {
	if r.Direction.Len() == 0 {
		return Result{}
	}
	r.Direction = r.Direction.Normalize()
	s.SetupAcceleration()

	s.scratch = s.accel.Intersect(r, s.scratch[:0])
	best := Result{}
	for _, c := range s.scratch {
		// A box entered beyond the best hit cannot contain a closer one.
		if best.Hit.Hit && c.T > best.Hit.Distance {
			continue
		}
		o, geo, ok := s.lookup(c.Item.Entity)
		if !ok || degenerate(o.LocalScale) {
			continue
		}
		// World direction is unit length, so the local ray parameter is the
		// world distance.
		local := r.ToLocal(o.WorldPose, o.LocalScale)
		h := geom.IntersectMesh(local, geo.Vertices, geo.Indices, mode == RaycastFrontFace)
		if !h.Hit || (best.Hit.Hit && h.Distance >= best.Hit.Distance) {
			continue
		}
		h.Normal = o.WorldPose.TransformVector(geom.DivElem(h.Normal, o.LocalScale)).Normalize()
		best = Result{Entity: c.Item.Entity, Hit: h}
	}
	if best.Hit.Hit {
		best.Point = r.At(best.Hit.Distance)
	}
	return best
}

// VisibleEntities returns the collidables whose world boxes overlap f.
// Broad phase only.
func (s *System) VisibleEntities(f geom.Frustum) []ecs.EntityID {
	s.SetupAcceleration()
	items := s.accel.Visible(f, nil)
	out := make([]ecs.EntityID, len(items))
	for i, it := range items {
		out[i] = it.Entity
	}
	return out
}

func (s *System) Stats() Stats {
	st := Stats{Collidables: len(s.collidables), Builds: s.builds}
	if s.accel != nil {
		st.Records = s.accel.Len()
	}
	return st
}

// Subscribe wires the system to scene events: destroyed entities leave the
// collidable set and refreshes newer than the cached BVH invalidate it.
// Geometry edits bump the graph revision, so they arrive as refreshes too.
func (s *System) Subscribe(bus *event.Bus) {
	event.Subscribe(bus, func(ev event.EntityDestroyed) {
		s.RemoveCollidable(ev.EntityID)
	})
	event.Subscribe(bus, func(ev event.TransformsChanged) {
		if s.accel != nil && ev.Revision != s.builtRev {
			s.QueueAccelerationRebuild()
		}
	})
}

var _ ecs.ComponentLoader = (*System)(nil)

// LoadComponent accepts "collider" components routed by ecs.Systems.
func (s *System) LoadComponent(id ecs.EntityID, name string, decode func(any) error) error {
	if name != ecs.ComponentName[Collider]() {
		return fmt.Errorf("collision: component %q: %w", name, ecs.ErrUnroutable)
	}
	var c Collider
	if err := decode(&c); err != nil {
		return fmt.Errorf("decode collider for %d: %w", id, err)
	}
	if c.Disabled {
		s.RemoveCollidable(id)
		return nil
	}
	s.AddCollidable(id)
	return nil
}
