package ccmd

import (
	"errors"

	"github.com/charmbracelet/log"
)

// CommandFunc is a native command. It returns 0 on success or an
// application defined exit code.
type CommandFunc func(vm *Vm, ctx any) uint32

// Command is one entry of the table a script is resolved against. An entry
// with an empty Name matches any command nothing else resolves.
type Command struct {
	Name    string
	Fn      CommandFunc
	Context any
}

// RunContext collects diagnostics of a failed run. It is optional, owned by
// the caller and only written on failure paths (and by SetError).
type RunContext struct {
	CommandName         string
	CommandErrorMessage string
	CommandExitCode     uint32
	// Logger, when set, receives a debug line for every executed opcode.
	Logger *log.Logger
}

// Program is a decoded bytecode blob. It is immutable once decoded.
type Program struct {
	Header  Header
	Lookups []Lookup
	OpCodes []OpCode
	Args    []Arg
	Heap    []byte
}

// Vm is the handle passed to commands while they execute.
type Vm struct {
	op   *OpCode
	name string
	args []Arg
	heap []byte
	rc   *RunContext
	err  ErrorCode
}

// CommandName is the script side name of the executing command. Useful for
// wildcard handlers.
func (vm *Vm) CommandName() string {
	if vm == nil {
		return ""
	}
	return vm.name
}

// ReadHeader checks magic and version and returns the header.
func ReadHeader(bytecode []byte) (Header, error) {
	return newReader(bytecode).header()
}

// Decode validates the header and slices out every section of the blob.
func Decode(bytecode []byte) (*Program, error) {
	r := newReader(bytecode)
	h, err := r.header()
	if err != nil {
		return nil, err
	}
	p := &Program{Header: h}
	if p.Lookups, err = r.lookups(h.LookupCount); err != nil {
		return nil, err
	}
	if p.OpCodes, err = r.opcodes(h.OpCodeCount); err != nil {
		return nil, err
	}
	if p.Args, err = r.args(h.ArgCount); err != nil {
		return nil, err
	}
	if p.Heap, err = r.next(uint64(h.HeapSize)); err != nil {
		return nil, err
	}
	return p, nil
}

// Run decodes bytecode and executes it against commands. It returns nil on
// success or one of the ErrorCode values.
func Run(commands []Command, bytecode []byte, rc *RunContext) error {
	p, err := Decode(bytecode)
	if err != nil {
		return err
	}
	return p.Run(commands, rc)
}

// heapString returns the heap text at [pos, pos+length).
func heapString(heap []byte, pos, length uint32) (string, bool) {
	end := uint64(pos) + uint64(length)
	if end > uint64(len(heap)) {
		return "", false
	}
	return string(heap[pos:end]), true
}

func findCommand(commands []Command, name string) int {
	for i := range commands {
		if commands[i].Fn != nil && commands[i].Name == name {
			return i
		}
	}
	return -1
}

// Names returns the command names of the lookup table in index order.
func (p *Program) Names() ([]string, error) {
	names := make([]string, len(p.Lookups))
	for i, l := range p.Lookups {
		name, ok := heapString(p.Heap, l.HeapPos, l.Length)
		if !ok {
			return nil, ErrBytecodeCorrupted
		}
		names[i] = name
	}
	return names, nil
}

// Run resolves every command of the program before executing any of them,
// then runs the opcodes in order and stops at the first failure.
func (p *Program) Run(commands []Command, rc *RunContext) error {
	names := make([]string, len(p.Lookups))
	resolved := make([]int, len(p.Lookups))
	for i, l := range p.Lookups {
		name, ok := heapString(p.Heap, l.HeapPos, l.Length)
		if !ok {
			return ErrBytecodeCorrupted
		}
		idx := findCommand(commands, name)
		if idx < 0 {
			idx = findCommand(commands, "")
		}
		if idx < 0 {
			if rc != nil {
				rc.CommandName = name
			}
			return ErrUnresolvedCommand
		}
		names[i] = name
		resolved[i] = idx
	}

	vm := &Vm{args: p.Args, heap: p.Heap, rc: rc}
	for i := range p.OpCodes {
		op := &p.OpCodes[i]
		if int(op.Idx) >= len(resolved) {
			return ErrBytecodeCorrupted
		}
		cmd := commands[resolved[op.Idx]]
		vm.op = op
		vm.name = names[op.Idx]

		if rc != nil && rc.Logger != nil {
			rc.Logger.Debug("ccmd exec", "op", i, "command", vm.name, "argc", op.ArgCount)
		}

		code := cmd.Fn(vm, cmd.Context)
		if code == 0 && vm.err == Success {
			continue
		}
		if rc != nil {
			rc.CommandName = cmd.Name
			if rc.CommandName == "" {
				rc.CommandName = vm.name
			}
			rc.CommandExitCode = code
		}
		return ErrFunctionFail
	}
	return nil
}

// CodeOf maps the result of Run back to its ErrorCode. Errors that do not
// come from this package report ErrFunctionFail.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var code ErrorCode
	if errors.As(err, &code) {
		return code
	}
	return ErrFunctionFail
}
