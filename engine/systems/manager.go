package systems

import (
	"io"
	"runtime"
)

type SystemManagerConfig struct {
	MaxScriptDepth   int
	ConsoleHistory   int
	MaxMaterialCount uint32
	TraceScripts     bool
	ScriptOutput     io.Writer
	// Job workers, defaults to the number of CPUs.
	Workers int
}

type SystemManager struct {
	JobSystem      *JobSystem
	ScriptSystem   *ScriptSystem
	MaterialSystem *MaterialSystem
	Console        *Console
}

func NewSystemManager(config SystemManagerConfig) (*SystemManager, error) {
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	js, err := NewJobSystem(workers, workers*2)
	if err != nil {
		return nil, err
	}

	ss := NewScriptSystem(ScriptSystemConfig{
		MaxDepth: config.MaxScriptDepth,
		Trace:    config.TraceScripts,
		Output:   config.ScriptOutput,
	})

	maxMaterials := config.MaxMaterialCount
	if maxMaterials == 0 {
		maxMaterials = 1000
	}
	ms, err := NewMaterialSystem(MaterialSystemConfig{
		MaxMaterialCount: maxMaterials,
	})
	if err != nil {
		_ = js.Shutdown()
		return nil, err
	}

	return &SystemManager{
		JobSystem:      js,
		ScriptSystem:   ss,
		MaterialSystem: ms,
		Console:        NewConsole(ss, config.ConsoleHistory),
	}, nil
}

func (sm *SystemManager) Shutdown() error {
	return sm.JobSystem.Shutdown()
}
