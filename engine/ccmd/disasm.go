package ccmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Disassemble writes a readable listing of bytecode to w.
func Disassemble(w io.Writer, bytecode []byte) error {
	p, err := Decode(bytecode)
	if err != nil {
		return err
	}
	names, err := p.Names()
	if err != nil {
		return err
	}

	h := p.Header
	fmt.Fprintf(w, "; ccmd v%d lookups=%d opcodes=%d args=%d heap=%d\n",
		h.Version, h.LookupCount, h.OpCodeCount, h.ArgCount, h.HeapSize)
	for i, l := range p.Lookups {
		fmt.Fprintf(w, "; lookup %d %q heap@%d\n", i, names[i], l.HeapPos)
	}

	for i, op := range p.OpCodes {
		if int(op.Idx) >= len(names) {
			return ErrBytecodeCorrupted
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "%04d %s", i, names[op.Idx])
		for j := uint32(0); j < uint32(op.ArgCount); j++ {
			pos := uint64(op.ArgPos) + uint64(j)
			if pos >= uint64(len(p.Args)) {
				return ErrBytecodeCorrupted
			}
			s, err := p.describe(p.Args[pos])
			if err != nil {
				return err
			}
			sb.WriteByte(' ')
			sb.WriteString(s)
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func (p *Program) describe(a Arg) (string, error) {
	switch a.Tag() {
	case ArgShortString:
		return strconv.Quote(a.ShortString()), nil
	case ArgString:
		s, ok := heapString(p.Heap, a.HeapPos(), a.HeapLen())
		if !ok {
			return "", ErrBytecodeCorrupted
		}
		return fmt.Sprintf("%q@%d", s, a.HeapPos()), nil
	case ArgInt32:
		return fmt.Sprintf("i32:%d", a.Int32()), nil
	case ArgUint32:
		return fmt.Sprintf("u32:%d", a.Uint32()), nil
	case ArgFloat:
		return "f32:" + FormatFloat(a.Float()), nil
	}
	return "", ErrBytecodeCorrupted
}
