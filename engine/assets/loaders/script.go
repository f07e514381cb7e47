package loaders

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima/engine/ccmd"
	"github.com/spaghettifunk/anima/engine/resources"
)

// ScriptLoader reads .ccmd sources and compiles them.
type ScriptLoader struct{}

func (sl *ScriptLoader) Load(path string) (*resources.Resource, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return newResource(path, resources.ResourceTypeScript, ccmd.Compile(src)), nil
}

func (sl *ScriptLoader) Unload(res *resources.Resource) error {
	return unload(res)
}

// ResourceName is the file name without directory and extension.
func ResourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func newResource(path string, t resources.ResourceType, data []byte) *resources.Resource {
	return &resources.Resource{
		ID:       uuid.NewString(),
		Name:     ResourceName(path),
		FullPath: path,
		Type:     t,
		DataSize: uint64(len(data)),
		Data:     data,
	}
}

func unload(res *resources.Resource) error {
	if res == nil {
		return errors.New("cannot unload a nil resource")
	}
	res.Data = nil
	res.DataSize = 0
	return nil
}
