package loaders

import (
	"os"

	"github.com/spaghettifunk/anima/engine/ccmd"
	"github.com/spaghettifunk/anima/engine/resources"
)

// MaterialLoader reads .amt material setup scripts. Running them is the
// material system's job.
type MaterialLoader struct{}

func (ml *MaterialLoader) Load(path string) (*resources.Resource, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return newResource(path, resources.ResourceTypeMaterial, ccmd.Compile(src)), nil
}

func (ml *MaterialLoader) Unload(res *resources.Resource) error {
	return unload(res)
}
