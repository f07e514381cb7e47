// Package ccmd compiles line based command scripts into a compact bytecode
// blob and runs that blob against a table of native commands.
package ccmd

import (
	"encoding/binary"
	"math"
)

/** @brief Sentinel at the start of every bytecode blob ("CCMD" in file order). */
const Magic uint32 = 0x444d4343

/** @brief The bytecode format version. Blobs must match exactly. */
const Version uint32 = 1

const (
	HeaderSize = 24
	LookupSize = 8
	OpCodeSize = 8
	ArgSize    = 8

	// Longest string stored inline in an Arg cell.
	ShortStringMax = 7
	// Largest length a heap string reference can carry.
	HeapStringMax = 1<<24 - 1
)

/**
 * @brief The header data of a compiled bytecode blob.
 */
type Header struct {
	Magic       uint32
	Version     uint32
	LookupCount uint32
	OpCodeCount uint32
	ArgCount    uint32
	HeapSize    uint32
}

/** @brief An interned command name living in the heap region. */
type Lookup struct {
	HeapPos uint32
	Length  uint32
}

/** @brief One compiled line: command index plus a span of arguments. */
type OpCode struct {
	Idx      uint16
	ArgCount uint16
	ArgPos   uint32
}

type ArgTag uint8

const (
	ArgInvalid ArgTag = iota
	ArgShortString
	ArgString
	ArgInt32
	ArgUint32
	ArgFloat
)

func (t ArgTag) String() string {
	switch t {
	case ArgShortString:
		return "short"
	case ArgString:
		return "string"
	case ArgInt32:
		return "i32"
	case ArgUint32:
		return "u32"
	case ArgFloat:
		return "f32"
	default:
		return "invalid"
	}
}

/**
 * @brief A fixed 8 byte argument cell.
 *
 * Bytes 0-3 hold the payload (heap offset, u32, i32 or f32 bits), bytes 4-6
 * the 24 bit heap length and byte 7 the tag. Short strings use bytes 0-6
 * directly, padded with NUL.
 */
type Arg [ArgSize]byte

func (a Arg) Tag() ArgTag {
	return ArgTag(a[7])
}

func (a Arg) payload() uint32 {
	return binary.LittleEndian.Uint32(a[0:4])
}

func (a Arg) Int32() int32 {
	return int32(a.payload())
}

func (a Arg) Uint32() uint32 {
	return a.payload()
}

func (a Arg) Float() float32 {
	return math.Float32frombits(a.payload())
}

// HeapPos and HeapLen describe an ArgString reference.
func (a Arg) HeapPos() uint32 {
	return a.payload()
}

func (a Arg) HeapLen() uint32 {
	return uint32(a[4]) | uint32(a[5])<<8 | uint32(a[6])<<16
}

// ShortString returns the inline text of an ArgShortString cell.
func (a Arg) ShortString() string {
	n := 0
	for n < ShortStringMax && a[n] != 0 {
		n++
	}
	return string(a[:n])
}

func makeArg(tag ArgTag, payload uint32) Arg {
	var a Arg
	binary.LittleEndian.PutUint32(a[0:4], payload)
	a[7] = byte(tag)
	return a
}

func Int32Arg(v int32) Arg {
	return makeArg(ArgInt32, uint32(v))
}

func Uint32Arg(v uint32) Arg {
	return makeArg(ArgUint32, v)
}

func FloatArg(v float32) Arg {
	return makeArg(ArgFloat, math.Float32bits(v))
}

// ShortStringArg panics if s does not fit inline.
func ShortStringArg(s string) Arg {
	if len(s) > ShortStringMax {
		panic("ccmd: short string longer than 7 bytes")
	}
	var a Arg
	copy(a[:ShortStringMax], s)
	a[7] = byte(ArgShortString)
	return a
}

func HeapStringArg(pos, length uint32) Arg {
	a := makeArg(ArgString, pos)
	length &= HeapStringMax
	a[4] = byte(length)
	a[5] = byte(length >> 8)
	a[6] = byte(length >> 16)
	return a
}

// ErrorCode is the outcome of a Run. Every code other than Success is also an error.
type ErrorCode uint32

const (
	Success ErrorCode = iota
	ErrFunctionFail
	ErrBytecodeVersionMismatch
	ErrBytecodeNotEnoughData
	ErrBytecodeCorrupted
	ErrUnresolvedCommand
)

func (e ErrorCode) Error() string {
	switch e {
	case Success:
		return "ccmd: success"
	case ErrFunctionFail:
		return "ccmd: command failed"
	case ErrBytecodeVersionMismatch:
		return "ccmd: bytecode version mismatch"
	case ErrBytecodeNotEnoughData:
		return "ccmd: not enough bytecode data"
	case ErrBytecodeCorrupted:
		return "ccmd: bytecode corrupted"
	case ErrUnresolvedCommand:
		return "ccmd: unresolved command"
	default:
		return "ccmd: unknown error"
	}
}
