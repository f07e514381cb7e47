package ccmd

import (
	"strconv"

	"golang.org/x/exp/constraints"
)

// Value lists the types an argument can be read into.
type Value interface {
	bool | int | int32 | int64 | uint | uint32 | uint64 | float32 | float64 | string
}

// Argc returns the number of arguments of the executing command.
func Argc(vm *Vm) uint32 {
	if vm == nil || vm.op == nil {
		return 0
	}
	return uint32(vm.op.ArgCount)
}

// Argv reads argument index of the executing command into out. It returns
// false, leaving out untouched, when the index is out of range or the
// stored value cannot be represented as T. Strings never convert to numbers;
// every value converts to a string.
func Argv[T Value](vm *Vm, index uint32, out *T) bool {
	a, ok := vm.arg(index)
	if !ok {
		return false
	}

	switch p := any(out).(type) {
	case *string:
		return assign(p)(vm.text(a))
	case *bool:
		v, ok := number[float64](vm, a)
		if ok {
			*p = v != 0
		}
		return ok
	case *int:
		return assign(p)(number[int](vm, a))
	case *int32:
		return assign(p)(number[int32](vm, a))
	case *int64:
		return assign(p)(number[int64](vm, a))
	case *uint:
		return assign(p)(number[uint](vm, a))
	case *uint32:
		return assign(p)(number[uint32](vm, a))
	case *uint64:
		return assign(p)(number[uint64](vm, a))
	case *float32:
		return assign(p)(number[float32](vm, a))
	case *float64:
		return assign(p)(number[float64](vm, a))
	}
	return false
}

// SetError hands a message to the RunContext of the run, if there is one.
func SetError(vm *Vm, message string) {
	if vm == nil || vm.rc == nil {
		return
	}
	vm.rc.CommandErrorMessage = message
}

func assign[T any](p *T) func(T, bool) bool {
	return func(v T, ok bool) bool {
		if ok {
			*p = v
		}
		return ok
	}
}

func (vm *Vm) arg(index uint32) (Arg, bool) {
	if vm == nil || vm.op == nil {
		return Arg{}, false
	}
	if index >= uint32(vm.op.ArgCount) {
		return Arg{}, false
	}
	pos := uint64(vm.op.ArgPos) + uint64(index)
	if pos >= uint64(len(vm.args)) {
		return Arg{}, false
	}
	return vm.args[pos], true
}

func number[N constraints.Integer | constraints.Float](vm *Vm, a Arg) (N, bool) {
	switch a.Tag() {
	case ArgInt32:
		return N(a.Int32()), true
	case ArgUint32:
		return N(a.Uint32()), true
	case ArgFloat:
		return N(a.Float()), true
	case ArgShortString, ArgString:
		return 0, false
	}
	vm.err = ErrBytecodeCorrupted
	return 0, false
}

func (vm *Vm) text(a Arg) (string, bool) {
	switch a.Tag() {
	case ArgShortString:
		return a.ShortString(), true
	case ArgString:
		s, ok := heapString(vm.heap, a.HeapPos(), a.HeapLen())
		if !ok {
			vm.err = ErrBytecodeCorrupted
		}
		return s, ok
	case ArgInt32:
		return strconv.FormatInt(int64(a.Int32()), 10), true
	case ArgUint32:
		return strconv.FormatUint(uint64(a.Uint32()), 10), true
	case ArgFloat:
		return FormatFloat(a.Float()), true
	}
	vm.err = ErrBytecodeCorrupted
	return "", false
}

// FormatFloat renders f in the shortest form that parses back to f.
func FormatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}
