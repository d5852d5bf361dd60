package scripting

import (
	"github.com/go-gl/mathgl/mgl32"
	lua "github.com/yuin/gopher-lua"

	"github.com/scenecore/scenecore/internal/core/ecs"
	"github.com/scenecore/scenecore/internal/geom"
	"github.com/scenecore/scenecore/internal/scene"
)

// registerScene installs the global "scene" table.
func (e *Engine) registerScene() {
	t := e.vm.SetFuncs(e.vm.NewTable(), map[string]lua.LGFunction{
		"create":         e.luaCreate,
		"find":           e.luaFind,
		"set_position":   e.luaSetPosition,
		"set_rotation":   e.luaSetRotation,
		"set_scale":      e.luaSetScale,
		"add_child":      e.luaAddChild,
		"destroy":        e.luaDestroy,
		"collidable":     e.luaCollidable,
		"raycast":        e.luaRaycast,
		"world_position": e.luaWorldPosition,
	})
	e.vm.SetGlobal("scene", t)
}

func checkEntity(L *lua.LState, n int) ecs.EntityID {
	return ecs.EntityID(L.CheckInt64(n))
}

func checkVec3(L *lua.LState, n int) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(L.CheckNumber(n)),
		float32(L.CheckNumber(n + 1)),
		float32(L.CheckNumber(n + 2)),
	}
}

// object resolves argument n to a live object or raises a Lua error.
func (e *Engine) object(L *lua.LState, n int) *scene.Object {
	id := checkEntity(L, n)
	o, ok := e.deps.Graph.TryGet(id)
	if !ok {
		L.ArgError(n, "unknown entity")
		return nil
	}
	return o
}

// scene.create(name) -> id
func (e *Engine) luaCreate(L *lua.LState) int {
	name := L.OptString(1, "")
	id := e.deps.World.CreateEntity()
	e.deps.Graph.AddObject(scene.NewObject(id, name))
	L.Push(lua.LNumber(id))
	return 1
}

// scene.find(name) -> id or nil
func (e *Engine) luaFind(L *lua.LState) int {
	id := e.deps.Graph.FindEntity(L.CheckString(1))
	if id == ecs.InvalidEntity {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(id))
	return 1
}

// scene.set_position(id, x, y, z)
func (e *Engine) luaSetPosition(L *lua.LState) int {
	o := e.object(L, 1)
	pose := o.LocalPose
	pose.Position = checkVec3(L, 2)
	e.deps.Graph.SetLocalPose(o.ID, pose)
	return 0
}

// scene.set_rotation(id, x, y, z) with XYZ euler angles in degrees.
func (e *Engine) luaSetRotation(L *lua.LState) int {
	o := e.object(L, 1)
	r := checkVec3(L, 2)
	e.deps.Graph.SetLocalPose(o.ID, geom.PoseFromEuler(o.LocalPose.Position, r[0], r[1], r[2]))
	return 0
}

// scene.set_scale(id, x, y, z)
func (e *Engine) luaSetScale(L *lua.LState) int {
	o := e.object(L, 1)
	e.deps.Graph.SetLocalScale(o.ID, checkVec3(L, 2))
	return 0
}

// scene.add_child(parent, child); parent 0 re-roots child.
func (e *Engine) luaAddChild(L *lua.LState) int {
	parent := checkEntity(L, 1)
	child := checkEntity(L, 2)
	if err := e.deps.Graph.AddChild(parent, child); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

// scene.destroy(id) queues id and its subtree for end-of-tick cleanup.
func (e *Engine) luaDestroy(L *lua.LState) int {
	e.deps.World.MarkForDestruction(checkEntity(L, 1))
	return 0
}

// scene.collidable(id) -> true if newly registered
func (e *Engine) luaCollidable(L *lua.LState) int {
	L.Push(lua.LBool(e.deps.Collision.AddCollidable(checkEntity(L, 1))))
	return 1
}

// scene.raycast(ox, oy, oz, dx, dy, dz) -> id, distance or nil
func (e *Engine) luaRaycast(L *lua.LState) int {
	r := geom.Ray{Origin: checkVec3(L, 1), Direction: checkVec3(L, 4)}
	res := e.deps.Collision.Raycast(r, e.deps.Mode)
	if !res.Hit.Hit {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(res.Entity))
	L.Push(lua.LNumber(res.Hit.Distance))
	return 2
}

// scene.world_position(id) -> x, y, z
func (e *Engine) luaWorldPosition(L *lua.LState) int {
	p := e.object(L, 1).WorldPose.Position
	L.Push(lua.LNumber(p[0]))
	L.Push(lua.LNumber(p[1]))
	L.Push(lua.LNumber(p[2]))
	return 3
}
