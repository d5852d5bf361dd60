package system

import (
	"time"

	"github.com/scenecore/scenecore/internal/core/event"
	coresys "github.com/scenecore/scenecore/internal/core/system"
	"github.com/scenecore/scenecore/internal/scene"
)

// TransformSystem recomputes world poses for every root subtree when the
// scene graph changed since the last tick, then announces the refreshed
// revision. Phase 2 (Transform).
type TransformSystem struct {
	graph *scene.Graph
	bus   *event.Bus
	seen  uint64
}

func NewTransformSystem(graph *scene.Graph, bus *event.Bus) *TransformSystem {
	return &TransformSystem{graph: graph, bus: bus}
}

func (s *TransformSystem) Phase() coresys.Phase { return coresys.PhaseTransform }

func (s *TransformSystem) Update(_ time.Duration) {
	rev := s.graph.Revision()
	if rev == s.seen {
		return
	}
	s.graph.Refresh()
	s.seen = rev
	event.Emit(s.bus, event.TransformsChanged{Revision: rev})
}
