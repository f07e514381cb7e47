package ccmd

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

func decode(t *testing.T, script string) *Program {
	t.Helper()
	p, err := Decode(Compile([]byte(script)))
	if err != nil {
		t.Fatalf("decode of %q failed: %v", script, err)
	}
	return p
}

func TestCompileLayout(t *testing.T) {
	bytecode := Compile([]byte("cmd1 2 3\ncmdS aa bb\n"))

	if len(bytecode) != HeaderSize+2*LookupSize+2*OpCodeSize+4*ArgSize+10 {
		t.Fatalf("unexpected blob size %d", len(bytecode))
	}
	if binary.LittleEndian.Uint32(bytecode[0:]) != Magic {
		t.Error("magic not at offset 0")
	}
	if binary.LittleEndian.Uint32(bytecode[4:]) != Version {
		t.Error("version not at offset 4")
	}

	p, err := Decode(bytecode)
	if err != nil {
		t.Fatal(err)
	}
	h := p.Header
	if h.LookupCount != 2 || h.OpCodeCount != 2 || h.ArgCount != 4 || h.HeapSize != 10 {
		t.Errorf("unexpected header %+v", h)
	}
	if !bytes.Equal(p.Heap, []byte("cmd1\x00cmdS\x00")) {
		t.Errorf("unexpected heap %q", p.Heap)
	}
	if p.Lookups[1] != (Lookup{HeapPos: 5, Length: 4}) {
		t.Errorf("unexpected lookup %+v", p.Lookups[1])
	}
	if p.OpCodes[0] != (OpCode{Idx: 0, ArgCount: 2, ArgPos: 0}) || p.OpCodes[1] != (OpCode{Idx: 1, ArgCount: 2, ArgPos: 2}) {
		t.Errorf("unexpected opcodes %+v", p.OpCodes)
	}
}

func TestCompileTagSelection(t *testing.T) {
	tests := []struct {
		word string
		tag  ArgTag
	}{
		{"0", ArgInt32},
		{"-5", ArgInt32},
		{"2147483647", ArgInt32},
		{"2147483648", ArgUint32},
		{"4294967295", ArgUint32},
		{"4294967296", ArgFloat},
		{"1.5", ArgFloat},
		{"-0.25", ArgFloat},
		{"1e3", ArgFloat},
		{".5", ArgFloat},
		{"+5", ArgShortString},
		{"0x10", ArgShortString},
		{"1_000", ArgShortString},
		{"abc", ArgShortString},
		{"abcdefg", ArgShortString},
		{"abcdefgh", ArgString},
		{"1.2.3.4.5", ArgString},
		{"0e5", ArgFloat},
		{"1e-50", ArgShortString},
		{"-1e-50", ArgShortString},
		{"1e39", ArgShortString},
		{"inf", ArgShortString},
		{"-Inf", ArgShortString},
		{"NaN", ArgShortString},
		{"infinity", ArgString},
	}

	for _, tt := range tests {
		p := decode(t, "cmd "+tt.word)
		if got := p.Args[0].Tag(); got != tt.tag {
			t.Errorf("%q encoded as %v, want %v", tt.word, got, tt.tag)
		}
	}
}

func TestCompileShortStringNoHeap(t *testing.T) {
	p := decode(t, "c seven77")
	// "seven77" is exactly seven bytes
	if p.Args[0].Tag() != ArgShortString || p.Args[0].ShortString() != "seven77" {
		t.Fatalf("unexpected arg %v %q", p.Args[0].Tag(), p.Args[0].ShortString())
	}
	if p.Header.HeapSize != 2 {
		t.Errorf("heap holds more than the command name: %q", p.Heap)
	}
}

func TestCompileInterning(t *testing.T) {
	p := decode(t, "long_command_name long_command_name\nlong_command_name other_long_argument long_command_name\n")

	if p.Header.LookupCount != 1 {
		t.Fatalf("lookup count %d, want 1", p.Header.LookupCount)
	}
	want := len("long_command_name") + 1 + len("other_long_argument") + 1
	if int(p.Header.HeapSize) != want {
		t.Errorf("heap size %d, want %d", p.Header.HeapSize, want)
	}
	for _, i := range []int{0, 2} {
		a := p.Args[i]
		if a.Tag() != ArgString || a.HeapPos() != p.Lookups[0].HeapPos {
			t.Errorf("arg %d not shared with the command name: %v@%d", i, a.Tag(), a.HeapPos())
		}
	}
	if p.Args[1].HeapLen() != uint32(len("other_long_argument")) {
		t.Errorf("heap length %d", p.Args[1].HeapLen())
	}
}

func TestCompileLookupOrder(t *testing.T) {
	p := decode(t, "b\na\nb\nc\n")
	names, err := p.Names()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(names, ",") != "b,a,c" {
		t.Errorf("lookups in order %v", names)
	}
	idx := []uint16{0, 1, 0, 2}
	for i, op := range p.OpCodes {
		if op.Idx != idx[i] {
			t.Errorf("opcode %d has idx %d, want %d", i, op.Idx, idx[i])
		}
	}
}

func TestCompileSkipsEmptyLines(t *testing.T) {
	p := decode(t, "\n\n   \t\na 1\n\r\nb\n")
	if p.Header.OpCodeCount != 2 {
		t.Errorf("opcode count %d, want 2", p.Header.OpCodeCount)
	}

	empty := decode(t, "")
	if empty.Header.OpCodeCount != 0 || empty.Header.LookupCount != 0 {
		t.Errorf("empty script produced %+v", empty.Header)
	}
	if err := Run(nil, Compile(nil), nil); err != nil {
		t.Errorf("empty script failed to run: %v", err)
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"a b  c", []string{"a", "b", "c"}},
		{"\ta\r", []string{"a"}},
		{`say "hello world" x`, []string{"say", "hello world", "x"}},
		{`say "a\"b"`, []string{"say", `a\`, `b"`}},
		{`say "unterminated rest`, []string{"say", "unterminated rest"}},
		{`say ""`, []string{"say", ""}},
		{`mid"quote`, []string{`mid"quote`}},
	}

	for _, tt := range tests {
		got := splitWords([]byte(tt.line))
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("splitWords(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestQuotedDigitsStayNumeric(t *testing.T) {
	p := decode(t, `label "123"`)
	if p.Args[0].Tag() != ArgInt32 || p.Args[0].Int32() != 123 {
		t.Errorf("quoted digits encoded as %v", p.Args[0].Tag())
	}
}

func TestAppendCompile(t *testing.T) {
	prefix := []byte("prefix")
	out := AppendCompile(prefix, []byte("a 1"))
	if !bytes.HasPrefix(out, []byte("prefix")) {
		t.Fatal("prefix lost")
	}
	if !bytes.Equal(out[len("prefix"):], Compile([]byte("a 1"))) {
		t.Error("appended blob differs from Compile")
	}
}

func TestHeapStringLengthMask(t *testing.T) {
	a := HeapStringArg(12, HeapStringMax+5)
	if a.HeapLen() != 4 || a.HeapPos() != 12 || a.Tag() != ArgString {
		t.Errorf("unexpected cell %v pos=%d len=%d", a.Tag(), a.HeapPos(), a.HeapLen())
	}
}

func TestDisassemble(t *testing.T) {
	var sb strings.Builder
	if err := Disassemble(&sb, Compile([]byte("set gravity -9.81\nname a_very_long_name 7\n"))); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{
		`0000 set "gravity" f32:-9.81`,
		`0001 name "a_very_long_name"@`,
		"i32:7",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("listing misses %q:\n%s", want, out)
		}
	}

	if err := Disassemble(&sb, []byte{1, 2, 3}); err == nil {
		t.Error("garbage disassembled without error")
	}
}

func TestFloatTextRoundTrip(t *testing.T) {
	for _, word := range []string{"2.75", "-0.1", "1e-30", "3.4028235e38", "1e-45"} {
		var f float32
		var text string
		commands := []Command{{Name: "cmd", Fn: func(vm *Vm, ctx any) uint32 {
			Argv(vm, 0, &f)
			Argv(vm, 0, &text)
			return 0
		}}}
		if err := Run(commands, Compile([]byte("cmd "+word)), nil); err != nil {
			t.Fatalf("%s: %v", word, err)
		}

		p := decode(t, "cmd "+text)
		if p.Args[0].Tag() != ArgFloat || p.Args[0].Float() != f {
			t.Errorf("%s rendered as %q which compiles to %v %v", word, text, p.Args[0].Tag(), p.Args[0].Float())
		}
	}
}
