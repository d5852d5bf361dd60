package system

import (
	"time"

	coresys "github.com/scenecore/scenecore/internal/core/system"
	"github.com/scenecore/scenecore/internal/scripting"
)

// ScriptSystem runs the scripts' on_tick hook once per tick.
// Phase 1 (Update).
type ScriptSystem struct {
	lua *scripting.Engine
}

func NewScriptSystem(lua *scripting.Engine) *ScriptSystem {
	return &ScriptSystem{lua: lua}
}

func (s *ScriptSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ScriptSystem) Update(dt time.Duration) {
	s.lua.Tick(dt)
}
