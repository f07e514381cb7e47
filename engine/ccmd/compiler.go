package ccmd

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

// compiler holds the tables of a single Compile call.
type compiler struct {
	commands map[string]uint16
	interned map[string]uint32

	lookups []Lookup
	opcodes []OpCode
	args    []Arg
	heap    []byte
}

func newCompiler() *compiler {
	return &compiler{
		commands: make(map[string]uint16),
		interned: make(map[string]uint32),
	}
}

// Compile turns a script, one command per line, into a bytecode blob.
// It never fails: every line becomes a best-effort opcode and problems such
// as unknown commands surface when the blob is run.
func Compile(script []byte) []byte {
	return AppendCompile(nil, script)
}

// AppendCompile is like Compile but appends the blob to dst.
func AppendCompile(dst []byte, script []byte) []byte {
	c := newCompiler()
	for len(script) > 0 {
		line := script
		if i := bytes.IndexByte(script, '\n'); i >= 0 {
			line, script = script[:i], script[i+1:]
		} else {
			script = nil
		}
		c.line(line)
	}
	return c.emit(dst)
}

func (c *compiler) line(line []byte) {
	words := splitWords(line)
	if len(words) == 0 {
		return
	}

	c.opcodes = append(c.opcodes, OpCode{
		Idx:      c.command(words[0]),
		ArgCount: uint16(len(words) - 1),
		ArgPos:   uint32(len(c.args)),
	})
	for _, w := range words[1:] {
		c.args = append(c.args, c.classify(w))
	}
}

// command returns the dense lookup index of name, adding it on first sight.
func (c *compiler) command(name string) uint16 {
	if idx, ok := c.commands[name]; ok {
		return idx
	}
	idx := uint16(len(c.lookups))
	c.commands[name] = idx
	c.lookups = append(c.lookups, Lookup{
		HeapPos: c.intern(name),
		Length:  uint32(len(name)),
	})
	return idx
}

// intern stores s in the heap once, NUL terminated, and returns its offset.
func (c *compiler) intern(s string) uint32 {
	if pos, ok := c.interned[s]; ok {
		return pos
	}
	pos := uint32(len(c.heap))
	c.heap = append(c.heap, s...)
	c.heap = append(c.heap, 0)
	c.interned[s] = pos
	return pos
}

// classify picks the argument encoding. The order is fixed: int32, uint32,
// float32, inline string, heap string.
func (c *compiler) classify(word string) Arg {
	if v, ok := parseInt32(word); ok {
		return Int32Arg(v)
	}
	if v, ok := parseUint32(word); ok {
		return Uint32Arg(v)
	}
	if v, ok := parseFloat32(word); ok {
		return FloatArg(v)
	}
	if len(word) <= ShortStringMax {
		return ShortStringArg(word)
	}
	return HeapStringArg(c.intern(word), uint32(len(word)))
}

func (c *compiler) emit(dst []byte) []byte {
	w := &writer{buf: dst}
	w.header(Header{
		Magic:       Magic,
		Version:     Version,
		LookupCount: uint32(len(c.lookups)),
		OpCodeCount: uint32(len(c.opcodes)),
		ArgCount:    uint32(len(c.args)),
		HeapSize:    uint32(len(c.heap)),
	})
	for _, l := range c.lookups {
		w.lookup(l)
	}
	for _, op := range c.opcodes {
		w.opcode(op)
	}
	for _, a := range c.args {
		w.arg(a)
	}
	w.bytes(c.heap)
	return w.buf
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\v', '\f':
		return true
	}
	return false
}

// splitWords breaks a line on whitespace. A word opening with '"' runs to
// the next '"' (or the end of the line); quotes are dropped and nothing
// inside them is unescaped.
func splitWords(line []byte) []string {
	var words []string
	i := 0
	for i < len(line) {
		if isSpace(line[i]) {
			i++
			continue
		}
		if line[i] == '"' {
			start := i + 1
			end := bytes.IndexByte(line[start:], '"')
			if end < 0 {
				words = append(words, string(line[start:]))
				break
			}
			words = append(words, string(line[start:start+end]))
			i = start + end + 1
			continue
		}
		start := i
		for i < len(line) && !isSpace(line[i]) {
			i++
		}
		words = append(words, string(line[start:i]))
	}
	return words
}

// Number parsing accepts plain decimal forms only: no '+' sign, no base
// prefixes, no digit separators.

func parseInt32(s string) (int32, bool) {
	if s == "" || s[0] == '+' {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(v), true
}

func parseUint32(s string) (uint32, bool) {
	if s == "" || s[0] == '+' {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

func parseFloat32(s string) (float32, bool) {
	if s == "" || s[0] == '+' || strings.ContainsAny(s, "xX_pP") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	// a literal with a nonzero mantissa must not collapse to zero
	if v == 0 && strings.ContainsAny(mantissa(s), "123456789") {
		return 0, false
	}
	return float32(v), true
}

func mantissa(s string) string {
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		return s[:i]
	}
	return s
}
