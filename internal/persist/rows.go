package persist

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/scenecore/scenecore/internal/core/ecs"
	"github.com/scenecore/scenecore/internal/geom"
	"github.com/scenecore/scenecore/internal/scene"
)

// ObjectRow is one persisted scene object. Rows of a snapshot are stored in
// pre-order, so replaying them in order rebuilds every children list in its
// original order.
type ObjectRow struct {
	EntityID    ecs.EntityID
	ParentID    ecs.EntityID
	Name        string
	Position    mgl32.Vec3
	Orientation mgl32.Quat
	Scale       mgl32.Vec3
	Mesh        string
}

// RowsFromGraph flattens graph into rows, roots in id order, each subtree
// pre-order.
func RowsFromGraph(graph *scene.Graph) []ObjectRow {
	rows := make([]ObjectRow, 0, graph.Len())
	var visit func(id ecs.EntityID)
	visit = func(id ecs.EntityID) {
		o, ok := graph.TryGet(id)
		if !ok {
			return
		}
		row := ObjectRow{
			EntityID:    o.ID,
			ParentID:    o.Parent,
			Name:        o.Name,
			Position:    o.LocalPose.Position,
			Orientation: o.LocalPose.Rotation(),
			Scale:       o.LocalScale,
		}
		if geo, ok := scene.GetComponent[scene.Geometry](o); ok {
			row.Mesh = geo.Mesh
		}
		rows = append(rows, row)
		for _, c := range o.Children {
			visit(c)
		}
	}
	for _, root := range graph.Roots() {
		visit(root)
	}
	return rows
}

// Restore adds the objects described by rows to graph, links them and
// refreshes world poses. Named meshes are resolved through meshes when it
// is non-nil. The entity counter is advanced past the largest restored id.
// On error graph is left as it was.
func Restore(rows []ObjectRow, graph *scene.Graph, entities *ecs.EntityManager, meshes scene.MeshSource) error {
	if err := validateRows(rows, graph); err != nil {
		return err
	}
	var highest ecs.EntityID
	for _, r := range rows {
		o := scene.NewObject(r.EntityID, r.Name)
		o.LocalPose = geom.NewPose(r.Position, r.Orientation)
		o.LocalScale = r.Scale
		graph.AddObject(o)
		if meshes != nil && r.Mesh != "" {
			if geo, ok := meshes.Mesh(r.Mesh); ok {
				graph.SetGeometry(o.ID, geo)
			}
		}
		highest = max(highest, r.EntityID)
	}
	for _, r := range rows {
		if r.ParentID == ecs.InvalidEntity {
			continue
		}
		if err := graph.AddChild(r.ParentID, r.EntityID); err != nil {
			// Only a parent loop among the rows gets here; restored objects
			// never adopt existing ones, so destroying them is exact.
			for _, added := range rows {
				graph.Destroy(added.EntityID)
			}
			return fmt.Errorf("restore entity %d: %w", r.EntityID, err)
		}
	}
	graph.Refresh()
	if entities != nil {
		entities.Reserve(highest)
	}
	return nil
}

// validateRows rejects rows that cannot be restored into graph without
// touching it: invalid, duplicate or already present ids and parents that
// are neither restored nor present.
func validateRows(rows []ObjectRow, graph *scene.Graph) error {
	ids := make(map[ecs.EntityID]struct{}, len(rows))
	for _, r := range rows {
		if !r.EntityID.Valid() {
			return fmt.Errorf("restore entity %d: %w", r.EntityID, scene.ErrInvalidEntity)
		}
		if _, dup := ids[r.EntityID]; dup {
			return fmt.Errorf("restore entity %d: duplicate id", r.EntityID)
		}
		if _, ok := graph.TryGet(r.EntityID); ok {
			return fmt.Errorf("restore entity %d: already in scene", r.EntityID)
		}
		ids[r.EntityID] = struct{}{}
	}
	for _, r := range rows {
		if r.ParentID == ecs.InvalidEntity {
			continue
		}
		if _, ok := ids[r.ParentID]; ok {
			continue
		}
		if _, ok := graph.TryGet(r.ParentID); !ok {
			return fmt.Errorf("restore entity %d: parent %d: %w", r.EntityID, r.ParentID, scene.ErrUnknownEntity)
		}
	}
	return nil
}
