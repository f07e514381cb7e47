package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/anima/engine/assets/loaders"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/resources"
)

type AssetInfo struct {
	Path       string
	Name       string
	Type       resources.ResourceType
	LastLoaded time.Time
}

type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[resources.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	wg       sync.WaitGroup
	fsnotify *fsnotify.Watcher
	isClosed bool
	reloaded chan *resources.Resource
	errors   chan error
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[resources.ResourceType]Loader),
		fsnotify: fsWatch,
		reloaded: make(chan *resources.Resource, 16),
		errors:   make(chan error, 16),
		done:     make(chan struct{}),
	}

	// Register loaders
	am.registerLoader(resources.ResourceTypeScript, &loaders.ScriptLoader{})
	am.registerLoader(resources.ResourceTypeBytecode, &loaders.BytecodeLoader{})
	am.registerLoader(resources.ResourceTypeMaterial, &loaders.MaterialLoader{})

	return am, nil
}

// Initialize indexes every known asset under assetsDir. With watch set,
// changes under the directory are reloaded and published on Reloaded.
func (am *AssetManager) Initialize(assetsDir string, watch bool) error {
	if err := am.watchRecursive(assetsDir, watch); err != nil {
		return err
	}
	if watch {
		am.wg.Add(1)
		go am.start()
	}
	core.LogInfo("asset manager indexed %d assets in '%s'", am.count(), assetsDir)
	return nil
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType resources.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// Reloaded delivers assets recompiled after a change on disk.
func (am *AssetManager) Reloaded() <-chan *resources.Resource {
	return am.reloaded
}

// Errors delivers watcher and reload errors.
func (am *AssetManager) Errors() <-chan error {
	return am.errors
}

func (am *AssetManager) count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// Assets lists the indexed assets of one type ordered by path.
func (am *AssetManager) Assets(t resources.ResourceType) []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	var out []AssetInfo
	for _, a := range am.assets {
		if a.Type == t {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Has reports whether an asset called name of the given type is indexed.
func (am *AssetManager) Has(name string, resourceType resources.ResourceType) bool {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	for _, a := range am.assets {
		if a.Name == name && a.Type == resourceType {
			return true
		}
	}
	return false
}

// LoadAsset loads the asset called name of the given type.
func (am *AssetManager) LoadAsset(name string, resourceType resources.ResourceType) (*resources.Resource, error) {
	am.mutex.RLock()
	var path string
	for p, a := range am.assets {
		if a.Name == name && a.Type == resourceType {
			path = p
			break
		}
	}
	am.mutex.RUnlock()
	if path == "" {
		return nil, fmt.Errorf("asset not found: %s (%s)", name, resourceType)
	}
	return am.Load(path)
}

// Load loads the asset at path with the loader registered for its extension.
func (am *AssetManager) Load(path string) (*resources.Resource, error) {
	assetType := determineAssetType(path)
	loader, loaderExists := am.loaders[assetType]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for %s: %w", path, core.ErrUnknownAssetType)
	}

	res, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	am.assets[path] = AssetInfo{
		Path:       path,
		Name:       res.Name,
		Type:       assetType,
		LastLoaded: time.Now(),
	}
	am.mutex.Unlock()
	return res, nil
}

func (am *AssetManager) UnloadAsset(asset *resources.Resource) error {
	loader, ok := am.loaders[asset.Type]
	if !ok {
		return core.ErrUnknownAssetType
	}
	return loader.Unload(asset)
}

// Close stops watching. The manager cannot be restarted.
func (am *AssetManager) Close() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return core.ErrAssetManagerClosed
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	am.wg.Wait()
	return am.fsnotify.Close()
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, true); err != nil {
						am.publishError(err)
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.reload(e.Name)
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())
			am.publishError(err)

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) reload(path string) {
	if determineAssetType(path) == resources.ResourceTypeNone {
		return
	}
	res, err := am.Load(path)
	if err != nil {
		core.LogError("failed to reload '%s': %s", path, err)
		am.publishError(err)
		return
	}
	core.LogDebug("reloaded asset '%s'", path)
	select {
	case am.reloaded <- res:
	case <-am.done:
	}
}

func (am *AssetManager) publishError(err error) {
	select {
	case am.errors <- err:
	default:
		// nobody listening, the error is already logged
	}
}

// watchRecursive indexes every asset under path and, with watch set, adds
// all directories to the watch list.
func (am *AssetManager) watchRecursive(path string, watch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if watch {
				return am.fsnotify.Add(walkPath)
			}
			return nil
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) {
	assetType := determineAssetType(path)
	if assetType == resources.ResourceTypeNone {
		return
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[path] = AssetInfo{
		Path: path,
		Name: loaders.ResourceName(path),
		Type: assetType,
	}
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, path)
}

func determineAssetType(path string) resources.ResourceType {
	switch filepath.Ext(path) {
	case ".ccmd":
		return resources.ResourceTypeScript
	case ".ccmdc":
		return resources.ResourceTypeBytecode
	case ".amt":
		return resources.ResourceTypeMaterial
	default:
		return resources.ResourceTypeNone
	}
}
