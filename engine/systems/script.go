package systems

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima/engine/ccmd"
	"github.com/spaghettifunk/anima/engine/core"
)

// Exit codes of the built-in commands.
const (
	ExitUsage uint32 = iota + 1
	ExitDepth
	ExitNested
)

/** @brief The configuration for the script system */
type ScriptSystemConfig struct {
	/** @brief How deep `exec` may nest scripts. */
	MaxDepth int
	/** @brief Log every executed command at debug level. */
	Trace bool
	/** @brief Where `echo` writes. Nil logs instead. */
	Output io.Writer
}

type Script struct {
	ID      string
	Name    string
	Program *ccmd.Program
}

// ScriptError describes a failed script run. It unwraps to the ccmd.ErrorCode.
type ScriptError struct {
	Script   string
	Code     ccmd.ErrorCode
	Command  string
	ExitCode uint32
	Message  string
}

func (e *ScriptError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "script '%s': %s", e.Script, e.Code.Error())
	if e.Command != "" {
		fmt.Fprintf(&sb, " (command '%s'", e.Command)
		if e.Code == ccmd.ErrFunctionFail {
			fmt.Fprintf(&sb, ", exit code %d", e.ExitCode)
		}
		sb.WriteString(")")
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	return sb.String()
}

func (e *ScriptError) Unwrap() error {
	return e.Code
}

type ScriptSystem struct {
	config ScriptSystemConfig

	mutex    sync.RWMutex
	commands []ccmd.Command
	scripts  map[string]*Script
	cvars    map[string]string
}

func NewScriptSystem(config ScriptSystemConfig) *ScriptSystem {
	if config.MaxDepth <= 0 {
		config.MaxDepth = 16
	}
	s := &ScriptSystem{
		config:  config,
		scripts: make(map[string]*Script),
		cvars:   make(map[string]string),
	}
	s.commands = []ccmd.Command{
		{Name: "echo", Fn: s.echo},
		{Name: "set", Fn: s.set},
	}
	core.LogInfo("Script system initialized.")
	return s
}

// Register adds a native command. An empty name registers the wildcard.
func (s *ScriptSystem) Register(name string, fn ccmd.CommandFunc, ctx any) error {
	if fn == nil {
		return fmt.Errorf("command '%s' has no function", name)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if name == "exec" {
		return fmt.Errorf("%w: '%s'", core.ErrCommandExists, name)
	}
	for _, c := range s.commands {
		if c.Name == name {
			return fmt.Errorf("%w: '%s'", core.ErrCommandExists, name)
		}
	}
	s.commands = append(s.commands, ccmd.Command{Name: name, Fn: fn, Context: ctx})
	core.LogDebug("command '%s' registered", name)
	return nil
}

func (s *ScriptSystem) Unregister(name string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, c := range s.commands {
		if c.Name == name {
			s.commands = append(s.commands[:i], s.commands[i+1:]...)
			return true
		}
	}
	return false
}

// Load decodes bytecode and stores it under name, replacing any previous script.
func (s *ScriptSystem) Load(name string, bytecode []byte) (*Script, error) {
	p, err := ccmd.Decode(bytecode)
	if err != nil {
		return nil, &ScriptError{Script: name, Code: ccmd.CodeOf(err)}
	}
	script := &Script{
		ID:      uuid.NewString(),
		Name:    name,
		Program: p,
	}

	s.mutex.Lock()
	_, replaced := s.scripts[name]
	s.scripts[name] = script
	s.mutex.Unlock()

	if replaced {
		core.LogDebug("script '%s' replaced (%s)", name, script.ID)
	}
	return script, nil
}

func (s *ScriptSystem) Unload(name string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, ok := s.scripts[name]
	delete(s.scripts, name)
	return ok
}

func (s *ScriptSystem) Get(name string) (*Script, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	script, ok := s.scripts[name]
	return script, ok
}

// Scripts returns the names of the loaded scripts, sorted.
func (s *ScriptSystem) Scripts() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	names := make([]string, 0, len(s.scripts))
	for n := range s.scripts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *ScriptSystem) Cvar(name string) (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	v, ok := s.cvars[name]
	return v, ok
}

// Execute runs a loaded script.
func (s *ScriptSystem) Execute(name string) error {
	return s.execute(name, 0)
}

// ExecuteSource compiles src and runs it once without storing it.
func (s *ScriptSystem) ExecuteSource(name, src string) error {
	p, err := ccmd.Decode(ccmd.Compile([]byte(src)))
	if err != nil {
		return &ScriptError{Script: name, Code: ccmd.CodeOf(err)}
	}
	return s.run(name, p, 0)
}

func (s *ScriptSystem) execute(name string, depth int) error {
	script, ok := s.Get(name)
	if !ok {
		return fmt.Errorf("%w: '%s'", core.ErrScriptNotFound, name)
	}
	return s.run(name, script.Program, depth)
}

// table snapshots the command table for one run. `exec` carries the depth
// of the run it belongs to.
func (s *ScriptSystem) table(depth int) []ccmd.Command {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	commands := make([]ccmd.Command, 0, len(s.commands)+1)
	commands = append(commands, ccmd.Command{Name: "exec", Fn: s.exec, Context: depth})
	return append(commands, s.commands...)
}

func (s *ScriptSystem) run(name string, p *ccmd.Program, depth int) error {
	rc := &ccmd.RunContext{}
	if s.config.Trace {
		rc.Logger = core.Logger()
	}

	err := p.Run(s.table(depth), rc)
	if err == nil {
		return nil
	}
	serr := &ScriptError{
		Script:   name,
		Code:     ccmd.CodeOf(err),
		Command:  rc.CommandName,
		ExitCode: rc.CommandExitCode,
		Message:  rc.CommandErrorMessage,
	}
	// nested runs surface through the exec message of their parent
	if depth == 0 {
		core.LogError(serr.Error())
	}
	return serr
}

func argStrings(vm *ccmd.Vm) []string {
	n := ccmd.Argc(vm)
	out := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		var s string
		if ccmd.Argv(vm, i, &s) {
			out = append(out, s)
		}
	}
	return out
}

func (s *ScriptSystem) echo(vm *ccmd.Vm, _ any) uint32 {
	line := strings.Join(argStrings(vm), " ")
	if s.config.Output != nil {
		fmt.Fprintln(s.config.Output, line)
		return 0
	}
	core.LogInfo("%s", line)
	return 0
}

func (s *ScriptSystem) set(vm *ccmd.Vm, _ any) uint32 {
	var name, value string
	if ccmd.Argc(vm) != 2 || !ccmd.Argv(vm, 0, &name) || !ccmd.Argv(vm, 1, &value) {
		ccmd.SetError(vm, "usage: set <name> <value>")
		return ExitUsage
	}

	s.mutex.Lock()
	s.cvars[name] = value
	s.mutex.Unlock()
	return 0
}

func (s *ScriptSystem) exec(vm *ccmd.Vm, ctx any) uint32 {
	var name string
	if ccmd.Argc(vm) != 1 || !ccmd.Argv(vm, 0, &name) {
		ccmd.SetError(vm, "usage: exec <script>")
		return ExitUsage
	}

	depth := ctx.(int) + 1
	if depth > s.config.MaxDepth {
		ccmd.SetError(vm, core.ErrScriptDepth.Error())
		return ExitDepth
	}
	if err := s.execute(name, depth); err != nil {
		ccmd.SetError(vm, err.Error())
		return ExitNested
	}
	return 0
}
