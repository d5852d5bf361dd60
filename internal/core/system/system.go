package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseEvents    Phase = iota // 0: deliver last tick's events
	PhaseUpdate                 // 1: scripts, gameplay, loaders
	PhaseTransform              // 2: world pose propagation
	PhaseSpatial                // 3: acceleration structure upkeep
	PhasePersist                // 4: periodic snapshots
	PhaseCleanup                // 5: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseEvents:
		return "events"
	case PhaseUpdate:
		return "update"
	case PhaseTransform:
		return "transform"
	case PhaseSpatial:
		return "spatial"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
