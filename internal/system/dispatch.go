package system

import (
	"time"

	"github.com/scenecore/scenecore/internal/core/event"
	coresys "github.com/scenecore/scenecore/internal/core/system"
)

// DispatchSystem delivers the events emitted during the previous tick.
// Phase 0 (Events).
type DispatchSystem struct {
	bus *event.Bus
}

func NewDispatchSystem(bus *event.Bus) *DispatchSystem {
	return &DispatchSystem{bus: bus}
}

func (s *DispatchSystem) Phase() coresys.Phase { return coresys.PhaseEvents }

func (s *DispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
