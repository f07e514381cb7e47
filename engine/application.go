package engine

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima/engine/core"
)

const (
	DefaultConsoleHistory = 64
	DefaultMaxScriptDepth = 16
)

type ApplicationConfig struct {
	// The application name used in windowing, if applicable.
	Name string `toml:"name"`
	// One of debug, info, warn, error, fatal.
	LogLevelName string        `toml:"log_level"`
	LogLevel     core.LogLevel `toml:"-"`
	// Root of the watched asset tree.
	AssetsDir string `toml:"assets_dir"`
	// Scripts executed in order when the engine starts running.
	Autoexec []string `toml:"autoexec"`
	// Recompile and reload scripts when their files change.
	Watch bool `toml:"watch"`
	// Number of console lines kept in the history.
	ConsoleHistory int `toml:"console_history"`
	// How deep `exec` may nest scripts.
	MaxScriptDepth int `toml:"max_script_depth"`
}

func (c *ApplicationConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Anima Game Engine"
	}
	if c.AssetsDir == "" {
		c.AssetsDir = "assets"
	}
	if c.ConsoleHistory <= 0 {
		c.ConsoleHistory = DefaultConsoleHistory
	}
	if c.MaxScriptDepth <= 0 {
		c.MaxScriptDepth = DefaultMaxScriptDepth
	}
}

// ParseApplicationConfig decodes an engine.toml document and fills defaults.
func ParseApplicationConfig(data []byte) (*ApplicationConfig, error) {
	cfg := &ApplicationConfig{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse application config: %w", err)
	}
	level, err := core.ParseLogLevel(cfg.LogLevelName)
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level
	cfg.setDefaults()
	return cfg, nil
}

// LoadApplicationConfig reads the config at path. A missing file yields the defaults.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		core.LogWarn("config file '%s' not found, using defaults", path)
		return ParseApplicationConfig(nil)
	}
	if err != nil {
		return nil, err
	}
	return ParseApplicationConfig(data)
}
