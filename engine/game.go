package engine

import (
	"github.com/spaghettifunk/anima/engine/systems"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	SystemManager     *systems.SystemManager
	State             interface{}
	FnInitialize      Initialize
	FnShutdown        Shutdown
}

// Initialize runs once the systems exist and before any script is executed.
// Games register their ccmd commands here.
type Initialize func() error
type Shutdown func() error
