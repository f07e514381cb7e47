package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima/engine/assets"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/resources"
	"github.com/spaghettifunk/anima/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	mutex        sync.Mutex
	currentStage Stage
	gameInstance *Game
	config       *ApplicationConfig

	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager
	clock         *core.Clock

	done         chan struct{}
	shutdownOnce sync.Once
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, fmt.Errorf("a game with an application config is required")
	}
	cfg := g.ApplicationConfig
	cfg.setDefaults()
	core.SetLogLevel(cfg.LogLevel)

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	sm, err := systems.NewSystemManager(systems.SystemManagerConfig{
		MaxScriptDepth: cfg.MaxScriptDepth,
		ConsoleHistory: cfg.ConsoleHistory,
		TraceScripts:   cfg.LogLevel == core.DebugLevel,
	})
	if err != nil {
		core.LogError(err.Error())
		_ = am.Close()
		return nil, err
	}
	g.SystemManager = sm

	return &Engine{
		currentStage:  EngineStageUninitialized,
		gameInstance:  g,
		config:        cfg,
		assetManager:  am,
		systemManager: sm,
		clock:         core.NewClock(),
		done:          make(chan struct{}),
	}, nil
}

func (e *Engine) Stage() Stage {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.currentStage
}

func (e *Engine) setStage(s Stage) {
	e.mutex.Lock()
	e.currentStage = s
	e.mutex.Unlock()
}

func (e *Engine) SystemManager() *systems.SystemManager {
	return e.systemManager
}

// Initialize indexes the assets, lets the game register its commands and
// loads every script and material. A material that fails its setup script
// aborts initialization.
func (e *Engine) Initialize() error {
	e.setStage(EngineStageInitializing)
	e.clock.Start()

	if err := e.assetManager.Initialize(e.config.AssetsDir, e.config.Watch); err != nil {
		return err
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}

	// cooked bytecode first so that sources with the same name win
	if err := e.loadAll(resources.ResourceTypeBytecode); err != nil {
		return err
	}
	if err := e.loadAll(resources.ResourceTypeScript); err != nil {
		return err
	}
	if err := e.loadAll(resources.ResourceTypeMaterial); err != nil {
		return err
	}

	e.clock.Update()
	core.LogInfo("engine initialized in %s (%d scripts)", e.clock.Elapsed(), len(e.systemManager.ScriptSystem.Scripts()))
	e.setStage(EngineStageInitialized)
	return nil
}

// loadAll loads every asset of one type on the job system.
func (e *Engine) loadAll(t resources.ResourceType) error {
	infos := e.assetManager.Assets(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for _, info := range infos {
		path := info.Path
		wg.Add(1)
		e.systemManager.JobSystem.Submit(systems.JobTask{
			Name: path,
			OnStart: func() error {
				res, err := e.assetManager.Load(path)
				if err != nil {
					return err
				}
				return e.register(res)
			},
			OnComplete: wg.Done,
			OnFailure: func(err error) {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", path, err))
				mu.Unlock()
				wg.Done()
			},
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}

// register hands a loaded resource to the system that owns its type.
func (e *Engine) register(res *resources.Resource) error {
	switch res.Type {
	case resources.ResourceTypeScript, resources.ResourceTypeBytecode:
		_, err := e.systemManager.ScriptSystem.Load(res.Name, res.Data)
		return err
	case resources.ResourceTypeMaterial:
		_, err := e.systemManager.MaterialSystem.Load(res.Data)
		return err
	}
	return fmt.Errorf("%w: %s", core.ErrUnknownAssetType, res.Type)
}

// Run executes the autoexec scripts in order. With watching enabled it then
// keeps applying reloaded assets until Shutdown is called.
func (e *Engine) Run() error {
	e.setStage(EngineStageRunning)

	for _, name := range e.config.Autoexec {
		e.clock.Start()
		if err := e.systemManager.ScriptSystem.Execute(name); err != nil {
			return err
		}
		e.clock.Update()
		core.LogDebug("autoexec '%s' finished in %s", name, e.clock.Elapsed())
	}

	if !e.config.Watch {
		return nil
	}

	for {
		select {
		case res := <-e.assetManager.Reloaded():
			// a script source shadows its cooked copy
			if res.Type == resources.ResourceTypeBytecode && e.assetManager.Has(res.Name, resources.ResourceTypeScript) {
				core.LogDebug("ignoring cooked '%s', its source is loaded", res.FullPath)
				continue
			}
			if err := e.register(res); err != nil {
				core.LogError("hot reload of '%s' failed: %s", res.FullPath, err)
				continue
			}
			core.LogInfo("hot reloaded %s '%s'", res.Type, res.Name)
		case err := <-e.assetManager.Errors():
			core.LogWarn("asset watcher: %s", err)
		case <-e.done:
			return nil
		}
	}
}

func (e *Engine) Shutdown() error {
	var err error
	e.shutdownOnce.Do(func() {
		e.setStage(EngineStageShuttingDown)
		close(e.done)

		if e.gameInstance.FnShutdown != nil {
			err = errors.Join(err, e.gameInstance.FnShutdown())
		}
		err = errors.Join(err, e.assetManager.Close(), e.systemManager.Shutdown())
	})
	return err
}
