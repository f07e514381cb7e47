package systems

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/spaghettifunk/anima/engine/ccmd"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/resources"
)

const (
	materialExitUsage uint32 = iota + 1
	materialExitUnknown
)

/** @brief The configuration for the material system. */
type MaterialSystemConfig struct {
	/** @brief The maximum number of loaded materials. */
	MaxMaterialCount uint32
}

type MaterialSystem struct {
	config MaterialSystemConfig

	mutex     sync.Mutex
	materials map[string]*resources.Material
	nextID    uint32

	commands        []ccmd.Command
	defaultMaterial *resources.Material
}

func NewMaterialSystem(config MaterialSystemConfig) (*MaterialSystem, error) {
	if config.MaxMaterialCount == 0 {
		return nil, fmt.Errorf("material system requires MaxMaterialCount > 0")
	}

	ms := &MaterialSystem{
		config:    config,
		materials: make(map[string]*resources.Material),
		commands:  materialCommands(),
	}
	ms.defaultMaterial = &resources.Material{
		ID: ms.nextID,
		Config: resources.MaterialConfig{
			Name:          resources.DefaultMaterialName,
			ShaderName:    "Builtin.Material",
			DiffuseColour: math.NewVec4(1, 1, 1, 1),
		},
	}
	ms.nextID++

	core.LogInfo("Material system initialized.")
	return ms, nil
}

func (ms *MaterialSystem) GetDefault() *resources.Material {
	return ms.defaultMaterial
}

// Setup runs a material script and returns the validated configuration.
// Any failure of the script is a fatal configuration error for the material.
func (ms *MaterialSystem) Setup(bytecode []byte) (*resources.MaterialConfig, error) {
	cfg := &resources.MaterialConfig{
		DiffuseColour: math.NewVec4(1, 1, 1, 1),
	}

	commands := make([]ccmd.Command, len(ms.commands))
	for i, c := range ms.commands {
		c.Context = cfg
		commands[i] = c
	}

	rc := &ccmd.RunContext{}
	if err := ccmd.Run(commands, bytecode, rc); err != nil {
		serr := &ScriptError{
			Script:   "material",
			Code:     ccmd.CodeOf(err),
			Command:  rc.CommandName,
			ExitCode: rc.CommandExitCode,
			Message:  rc.CommandErrorMessage,
		}
		core.LogError("material setup failed: %s", serr)
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidMaterial, serr)
	}

	if err := validateMaterial(cfg); err != nil {
		core.LogError("material '%s' rejected: %s", cfg.Name, err)
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidMaterial, err)
	}
	return cfg, nil
}

// Load runs a material script and registers the result. Loading a material
// with a name already present replaces its configuration and bumps its
// generation.
func (ms *MaterialSystem) Load(bytecode []byte) (*resources.Material, error) {
	cfg, err := ms.Setup(bytecode)
	if err != nil {
		return nil, err
	}

	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	if m, ok := ms.materials[cfg.Name]; ok {
		m.Config = *cfg
		m.Generation++
		return m, nil
	}
	if uint32(len(ms.materials)) >= ms.config.MaxMaterialCount {
		return nil, fmt.Errorf("material system is full (%d)", ms.config.MaxMaterialCount)
	}
	m := &resources.Material{
		ID:     ms.nextID,
		Config: *cfg,
	}
	ms.nextID++
	ms.materials[cfg.Name] = m
	core.LogDebug("material '%s' loaded", cfg.Name)
	return m, nil
}

// Acquire takes a reference on a loaded material.
func (ms *MaterialSystem) Acquire(name string) (*resources.Material, error) {
	if name == resources.DefaultMaterialName {
		return ms.defaultMaterial, nil
	}

	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	m, ok := ms.materials[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", core.ErrMaterialNotFound, name)
	}
	m.ReferenceCount++
	return m, nil
}

// Release drops a reference. Auto-release materials are unloaded with their
// last reference.
func (ms *MaterialSystem) Release(name string) {
	if name == resources.DefaultMaterialName {
		return
	}

	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	m, ok := ms.materials[name]
	if !ok {
		core.LogWarn("tried to release unknown material '%s'", name)
		return
	}
	if m.ReferenceCount > 0 {
		m.ReferenceCount--
	}
	if m.ReferenceCount == 0 && m.Config.AutoRelease {
		delete(ms.materials, name)
		core.LogDebug("material '%s' released", name)
	}
}

func (ms *MaterialSystem) Get(name string) (*resources.Material, bool) {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	m, ok := ms.materials[name]
	return m, ok
}

func materialCommands() []ccmd.Command {
	return []ccmd.Command{
		{Name: "name", Fn: stringProperty(func(c *resources.MaterialConfig) *string { return &c.Name })},
		{Name: "shader", Fn: stringProperty(func(c *resources.MaterialConfig) *string { return &c.ShaderName })},
		{Name: "diffuse_map", Fn: stringProperty(func(c *resources.MaterialConfig) *string { return &c.DiffuseMapName })},
		{Name: "specular_map", Fn: stringProperty(func(c *resources.MaterialConfig) *string { return &c.SpecularMapName })},
		{Name: "normal_map", Fn: stringProperty(func(c *resources.MaterialConfig) *string { return &c.NormalMapName })},
		{Name: "diffuse_colour", Fn: diffuseColour},
		{Name: "shininess", Fn: shininess},
		{Name: "autorelease", Fn: autoRelease},
		{Name: "", Fn: unknownProperty},
	}
}

func stringProperty(field func(*resources.MaterialConfig) *string) ccmd.CommandFunc {
	return func(vm *ccmd.Vm, ctx any) uint32 {
		var v string
		if ccmd.Argc(vm) != 1 || !ccmd.Argv(vm, 0, &v) {
			ccmd.SetError(vm, fmt.Sprintf("usage: %s <value>", vm.CommandName()))
			return materialExitUsage
		}
		*field(ctx.(*resources.MaterialConfig)) = v
		return 0
	}
}

func diffuseColour(vm *ccmd.Vm, ctx any) uint32 {
	if ccmd.Argc(vm) != 4 {
		ccmd.SetError(vm, "usage: diffuse_colour <r> <g> <b> <a>")
		return materialExitUsage
	}
	var c [4]float32
	for i := range c {
		if !ccmd.Argv(vm, uint32(i), &c[i]) {
			ccmd.SetError(vm, "diffuse_colour expects numbers")
			return materialExitUsage
		}
	}
	ctx.(*resources.MaterialConfig).DiffuseColour = math.NewVec4(c[0], c[1], c[2], c[3])
	return 0
}

func shininess(vm *ccmd.Vm, ctx any) uint32 {
	var v float32
	if ccmd.Argc(vm) != 1 || !ccmd.Argv(vm, 0, &v) {
		ccmd.SetError(vm, "usage: shininess <value>")
		return materialExitUsage
	}
	ctx.(*resources.MaterialConfig).Shininess = v
	return 0
}

// autoRelease takes a number or one of the strconv.ParseBool spellings.
func autoRelease(vm *ccmd.Vm, ctx any) uint32 {
	if ccmd.Argc(vm) != 1 {
		ccmd.SetError(vm, "usage: autorelease <bool>")
		return materialExitUsage
	}
	var b bool
	if !ccmd.Argv(vm, 0, &b) {
		var s string
		ccmd.Argv(vm, 0, &s)
		v, err := strconv.ParseBool(s)
		if err != nil {
			ccmd.SetError(vm, fmt.Sprintf("invalid autorelease value: %s", s))
			return materialExitUsage
		}
		b = v
	}
	ctx.(*resources.MaterialConfig).AutoRelease = b
	return 0
}

func unknownProperty(vm *ccmd.Vm, _ any) uint32 {
	ccmd.SetError(vm, fmt.Sprintf("unknown material property '%s'", vm.CommandName()))
	return materialExitUnknown
}

func validateMaterial(material *resources.MaterialConfig) error {
	if material.Name == "" {
		return fmt.Errorf("material name is required")
	}

	if material.ShaderName == "" {
		return fmt.Errorf("shader name is required")
	}

	// Check that DiffuseColour values are within [0.0, 1.0] range
	for _, c := range material.DiffuseColour.Elements() {
		if !math.InRange(c, 0, 1) {
			return fmt.Errorf("diffuse_colour values must be between 0.0 and 1.0")
		}
	}

	if material.Shininess < 0 {
		return fmt.Errorf("shininess must be a non-negative value")
	}
	return nil
}
