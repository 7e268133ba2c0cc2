package vm

import (
	"math"
	"unsafe"
)

// Cell is the polymorphic 64 bit value stored in every stack slot,
// register and instruction operand. All four coercions below alias the
// same eight bytes; none of them can fail, and round-tripping a Cell
// through the stack never mutates its bit pattern.
type Cell uint64

// Int64Cell builds a Cell whose Int64 view holds v.
func Int64Cell(v int64) Cell { return Cell(v) }

// Uint64Cell builds a Cell whose Uint64 view holds v.
func Uint64Cell(v uint64) Cell { return Cell(v) }

// Float64Cell builds a Cell whose Float64 view holds v.
func Float64Cell(v float64) Cell { return Cell(math.Float64bits(v)) }

// PtrCell builds a Cell whose Ptr view holds p.
func PtrCell(p unsafe.Pointer) Cell { return Cell(uintptr(p)) }

// Int64 reinterprets the Cell as a signed 64 bit integer.
func (c Cell) Int64() int64 { return int64(c) }

// Uint64 reinterprets the Cell as an unsigned 64 bit integer.
func (c Cell) Uint64() uint64 { return uint64(c) }

// Float64 reinterprets the Cell as an IEEE-754 double.
func (c Cell) Float64() float64 { return math.Float64frombits(uint64(c)) }

// Ptr reinterprets the Cell as an opaque pointer into the host heap.
// Guest code never owns the memory a Ptr cell refers to; it is the
// VM's string arena or a block handed out by the native allocator.
func (c Cell) Ptr() unsafe.Pointer { return unsafe.Pointer(uintptr(c)) }
