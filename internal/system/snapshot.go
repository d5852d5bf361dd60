package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/scenecore/scenecore/internal/core/system"
	"github.com/scenecore/scenecore/internal/scene"
)

// SnapshotSaver persists the whole scene graph under a name.
type SnapshotSaver interface {
	Save(ctx context.Context, name string, graph *scene.Graph) error
}

// SnapshotSystem periodically saves the scene graph when it changed since
// the last save. Phase 4 (Persist).
type SnapshotSystem struct {
	graph     *scene.Graph
	saver     SnapshotSaver
	name      string
	log       *zap.Logger
	tickCount int
	interval  int // save every N ticks
	savedRev  uint64
	saved     bool
}

func NewSnapshotSystem(graph *scene.Graph, saver SnapshotSaver, name string, log *zap.Logger, intervalTicks int) *SnapshotSystem {
	return &SnapshotSystem{
		graph:    graph,
		saver:    saver,
		name:     name,
		log:      log,
		interval: max(intervalTicks, 1),
	}
}

func (s *SnapshotSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *SnapshotSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	if s.saved && s.graph.Revision() == s.savedRev {
		return
	}
	s.save()
}

// SaveNow writes a snapshot regardless of the interval or dirty state.
// Called on shutdown.
func (s *SnapshotSystem) SaveNow() error {
	return s.save()
}

func (s *SnapshotSystem) save() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rev := s.graph.Revision()
	if err := s.saver.Save(ctx, s.name, s.graph); err != nil {
		s.log.Error("snapshot save failed", zap.String("snapshot", s.name), zap.Error(err))
		return err
	}
	s.savedRev = rev
	s.saved = true
	s.log.Debug("snapshot saved",
		zap.String("snapshot", s.name),
		zap.Int("objects", s.graph.Len()),
		zap.Uint64("revision", rev),
	)
	return nil
}
