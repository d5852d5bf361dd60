package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/scenecore/scenecore/internal/core/ecs"
	"github.com/scenecore/scenecore/internal/core/event"
	coresys "github.com/scenecore/scenecore/internal/core/system"
	"github.com/scenecore/scenecore/internal/scene"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end.
// Every queued id takes its scene subtree with it; each destroyed id is
// purged from the component stores and announced on the bus.
// Phase 5 (Cleanup).
type CleanupSystem struct {
	world *ecs.World
	graph *scene.Graph
	bus   *event.Bus
	log   *zap.Logger
}

func NewCleanupSystem(world *ecs.World, graph *scene.Graph, bus *event.Bus, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: world, graph: graph, bus: bus, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	for _, id := range s.world.FlushDestroyQueue() {
		destroyed, err := s.graph.DestroyWithList(id)
		if err != nil {
			s.log.Warn("destroy failed", zap.Uint64("entity", uint64(id)), zap.Error(err))
			continue
		}
		for _, d := range destroyed {
			s.world.Registry().RemoveAll(d)
			event.Emit(s.bus, event.EntityDestroyed{EntityID: d})
		}
	}
}
