package system

import (
	"time"

	"github.com/scenecore/scenecore/internal/collision"
	coresys "github.com/scenecore/scenecore/internal/core/system"
)

// AccelerationSystem rebuilds the collision BVH in the tick the scene
// changed, so queries issued between ticks find it ready.
// Phase 3 (Spatial).
type AccelerationSystem struct {
	collision *collision.System
}

func NewAccelerationSystem(c *collision.System) *AccelerationSystem {
	return &AccelerationSystem{collision: c}
}

func (s *AccelerationSystem) Phase() coresys.Phase { return coresys.PhaseSpatial }

func (s *AccelerationSystem) Update(_ time.Duration) {
	if s.collision.Stale() {
		s.collision.QueueAccelerationRebuild()
	}
	s.collision.SetupAcceleration()
}
