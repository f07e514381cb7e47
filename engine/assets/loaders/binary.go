package loaders

import (
	"fmt"
	"os"

	"github.com/spaghettifunk/anima/engine/ccmd"
	"github.com/spaghettifunk/anima/engine/resources"
)

// BytecodeLoader loads cooked .ccmdc files.
type BytecodeLoader struct{}

func (bl *BytecodeLoader) Load(path string) (*resources.Resource, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// stale or foreign blobs are rejected here rather than at first run
	if _, err := ccmd.ReadHeader(buf); err != nil {
		return nil, fmt.Errorf("invalid bytecode file %s: %w", path, err)
	}

	return newResource(path, resources.ResourceTypeBytecode, buf), nil
}

func (bl *BytecodeLoader) Unload(res *resources.Resource) error {
	return unload(res)
}
