package ecs

// World is the top-level ECS container. It owns the entity manager, the
// component store registry, the system registry, and a deferred destruction
// queue flushed by the cleanup system each tick.
type World struct {
	entities     *EntityManager
	registry     *Registry
	systems      *Systems
	destroyQueue []EntityID
}

func NewWorld() *World {
	return &World{
		entities:     NewEntityManager(),
		registry:     NewRegistry(),
		systems:      NewSystems(),
		destroyQueue: make([]EntityID, 0, 64),
	}
}

func (w *World) Entities() *EntityManager { return w.entities }
func (w *World) Registry() *Registry       { return w.registry }
func (w *World) Systems() *Systems         { return w.systems }

// CreateEntity is safe to call from any goroutine.
func (w *World) CreateEntity() EntityID {
	return w.entities.Create()
}

// MarkForDestruction queues an entity for end-of-tick cleanup.
// AllEntities is accepted and means "everything".
func (w *World) MarkForDestruction(id EntityID) {
	if id == InvalidEntity {
		return
	}
	w.destroyQueue = append(w.destroyQueue, id)
}

// Pending returns the number of queued destructions.
func (w *World) Pending() int { return len(w.destroyQueue) }

// FlushDestroyQueue returns the queued ids in queue order and clears the
// queue. Component stores are purged by the caller once the subtree of each
// id is known.
func (w *World) FlushDestroyQueue() []EntityID {
	if len(w.destroyQueue) == 0 {
		return nil
	}
	out := make([]EntityID, len(w.destroyQueue))
	copy(out, w.destroyQueue)
	w.destroyQueue = w.destroyQueue[:0]
	return out
}
