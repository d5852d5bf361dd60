package event

import "github.com/scenecore/scenecore/internal/core/ecs"

// EntityDestroyed is emitted once per entity removed from the scene graph,
// including every descendant of a destroyed subtree.
type EntityDestroyed struct {
	EntityID ecs.EntityID
}

// TransformsChanged is emitted after a tick in which world poses were
// recomputed. Revision is the scene graph revision that was refreshed.
type TransformsChanged struct {
	Revision uint64
}
