package ccmd

import "encoding/binary"

// reader is a bounds-checked cursor over a bytecode blob. Every read that
// would run past the end reports ErrBytecodeNotEnoughData.
type reader struct {
	buf []byte
	pos int
}

func newReader(b []byte) *reader {
	return &reader{buf: b}
}

func (r *reader) remaining() int {
	return len(r.buf) - r.pos
}

// next hands out the following n bytes without copying.
func (r *reader) next(n uint64) ([]byte, error) {
	if n > uint64(r.remaining()) {
		return nil, ErrBytecodeNotEnoughData
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) header() (Header, error) {
	var h Header
	fields := []*uint32{&h.Magic, &h.Version, &h.LookupCount, &h.OpCodeCount, &h.ArgCount, &h.HeapSize}
	for i, f := range fields {
		v, err := r.u32()
		if err != nil {
			return h, err
		}
		*f = v
		// reject foreign blobs before trusting any count
		if i == 0 && h.Magic != Magic {
			return h, ErrBytecodeVersionMismatch
		}
		if i == 1 && h.Version != Version {
			return h, ErrBytecodeVersionMismatch
		}
	}
	return h, nil
}

func (r *reader) lookups(count uint32) ([]Lookup, error) {
	b, err := r.next(uint64(count) * LookupSize)
	if err != nil {
		return nil, err
	}
	out := make([]Lookup, count)
	for i := range out {
		o := i * LookupSize
		out[i] = Lookup{
			HeapPos: binary.LittleEndian.Uint32(b[o:]),
			Length:  binary.LittleEndian.Uint32(b[o+4:]),
		}
	}
	return out, nil
}

func (r *reader) opcodes(count uint32) ([]OpCode, error) {
	b, err := r.next(uint64(count) * OpCodeSize)
	if err != nil {
		return nil, err
	}
	out := make([]OpCode, count)
	for i := range out {
		o := i * OpCodeSize
		out[i] = OpCode{
			Idx:      binary.LittleEndian.Uint16(b[o:]),
			ArgCount: binary.LittleEndian.Uint16(b[o+2:]),
			ArgPos:   binary.LittleEndian.Uint32(b[o+4:]),
		}
	}
	return out, nil
}

func (r *reader) args(count uint32) ([]Arg, error) {
	b, err := r.next(uint64(count) * ArgSize)
	if err != nil {
		return nil, err
	}
	out := make([]Arg, count)
	for i := range out {
		copy(out[i][:], b[i*ArgSize:])
	}
	return out, nil
}

// writer appends the fixed-width little-endian encoding to a caller-owned buffer.
type writer struct {
	buf []byte
}

func (w *writer) u16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *writer) u32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *writer) header(h Header) {
	w.u32(h.Magic)
	w.u32(h.Version)
	w.u32(h.LookupCount)
	w.u32(h.OpCodeCount)
	w.u32(h.ArgCount)
	w.u32(h.HeapSize)
}

func (w *writer) lookup(l Lookup) {
	w.u32(l.HeapPos)
	w.u32(l.Length)
}

func (w *writer) opcode(op OpCode) {
	w.u16(op.Idx)
	w.u16(op.ArgCount)
	w.u32(op.ArgPos)
}

func (w *writer) arg(a Arg) {
	w.buf = append(w.buf, a[:]...)
}

func (w *writer) bytes(b []byte) {
	w.buf = append(w.buf, b...)
}
