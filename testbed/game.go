package testbed

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima/engine"
	"github.com/spaghettifunk/anima/engine/ccmd"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
)

type TestGame struct {
	*engine.Game
}

type Entity struct {
	Kind     string
	Position math.Vec3
}

type gameState struct {
	mutex    sync.Mutex
	camera   math.Vec3
	entities []Entity
}

func NewTestGame(config *engine.ApplicationConfig) (*TestGame, error) {
	if config == nil {
		return nil, fmt.Errorf("testbed requires an application config")
	}
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State: &gameState{
				camera: math.NewVec3(10.5, 5.0, 9.5),
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnShutdown = tg.Shutdown

	return tg, nil
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")

	if g.SystemManager == nil {
		return fmt.Errorf("the engine is not yet initialized with all the system managers ")
	}

	state := g.State.(*gameState)
	if err := g.SystemManager.ScriptSystem.Register("spawn", spawnCommand, state); err != nil {
		return err
	}
	if err := g.SystemManager.ScriptSystem.Register("camera", cameraCommand, state); err != nil {
		return err
	}
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.State.(*gameState)
	state.mutex.Lock()
	defer state.mutex.Unlock()

	core.LogInfo("testbed shutting down with %d entities, camera at [%.2f, %.2f, %.2f]",
		len(state.entities), state.camera.X, state.camera.Y, state.camera.Z)
	return nil
}

func (g *TestGame) Entities() []Entity {
	state := g.State.(*gameState)
	state.mutex.Lock()
	defer state.mutex.Unlock()
	return append([]Entity(nil), state.entities...)
}

func (g *TestGame) Camera() math.Vec3 {
	state := g.State.(*gameState)
	state.mutex.Lock()
	defer state.mutex.Unlock()
	return state.camera
}

// readVec3 reads three numeric arguments starting at index.
func readVec3(vm *ccmd.Vm, index uint32) (math.Vec3, bool) {
	var v math.Vec3
	ok := ccmd.Argv(vm, index, &v.X) &&
		ccmd.Argv(vm, index+1, &v.Y) &&
		ccmd.Argv(vm, index+2, &v.Z)
	return v, ok
}

// spawn <kind> [x y z]
func spawnCommand(vm *ccmd.Vm, ctx any) uint32 {
	state := ctx.(*gameState)

	argc := ccmd.Argc(vm)
	if argc != 1 && argc != 4 {
		ccmd.SetError(vm, "usage: spawn <kind> [x y z]")
		return 1
	}
	var kind string
	if !ccmd.Argv(vm, 0, &kind) {
		ccmd.SetError(vm, "spawn: invalid kind")
		return 1
	}
	e := Entity{Kind: kind}
	if argc == 4 {
		pos, ok := readVec3(vm, 1)
		if !ok {
			ccmd.SetError(vm, "spawn: position expects numbers")
			return 1
		}
		e.Position = pos
	}

	state.mutex.Lock()
	state.entities = append(state.entities, e)
	state.mutex.Unlock()

	core.LogDebug("spawned '%s' at [%.2f, %.2f, %.2f]", e.Kind, e.Position.X, e.Position.Y, e.Position.Z)
	return 0
}

// camera <x> <y> <z>
func cameraCommand(vm *ccmd.Vm, ctx any) uint32 {
	state := ctx.(*gameState)

	if ccmd.Argc(vm) != 3 {
		ccmd.SetError(vm, "usage: camera <x> <y> <z>")
		return 1
	}
	pos, ok := readVec3(vm, 0)
	if !ok {
		ccmd.SetError(vm, "camera: position expects numbers")
		return 1
	}

	state.mutex.Lock()
	state.camera = pos
	state.mutex.Unlock()
	return 0
}
