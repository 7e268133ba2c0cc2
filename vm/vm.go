// This file is part of maya.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vm

import (
	"unsafe"

	"github.com/pkg/errors"
)

const (
	// StackSize is the fixed capacity of the data stack.
	StackSize = 1024
	// RegisterCount is the number of general-purpose and reserved
	// registers. Register 5 is the stack-pointer save slot used by
	// call/ret; register 6 is the return-address save slot.
	RegisterCount = 7

	regStackSave  = 5
	regReturnAddr = 6
)

// NativeFunc is the Go signature every native function exposed via the
// native opcode must have. It receives the whole VM state, reads and
// writes the stack/registers directly, and returns a fault kind (nil
// for success). It must leave sp within bounds before returning nil.
type NativeFunc func(*Instance) error

// Option configures an Instance at construction time.
type Option func(*Instance) error

// WithNatives installs the resolved native function table. The index
// of a NativeFunc in fns is the operand the native opcode uses to
// invoke it.
func WithNatives(fns []NativeFunc) Option {
	return func(i *Instance) error { i.natives = fns; return nil }
}

// WithNativeCloser registers a func to call when the Instance is
// closed, typically releasing the native shared library handle.
func WithNativeCloser(closer func() error) Option {
	return func(i *Instance) error { i.closeNative = closer; return nil }
}

// WithImageCloser registers a func to call when the Instance is
// closed, typically unmapping an image loaded with LoadMapped.
func WithImageCloser(closer func() error) Option {
	return func(i *Instance) error { i.closeImage = closer; return nil }
}

// Instance represents a MAYA virtual machine ready to run a single
// program. It is not safe for concurrent use.
type Instance struct {
	rip uint64
	sp  uint64

	program   []Instruction
	data      [StackSize]Cell
	registers [RegisterCount]Cell

	halted bool
	fault  error

	natives     []NativeFunc
	stringArena []byte

	closeNative func() error
	closeImage  func() error

	insCount uint64
}

// New creates an Instance ready to execute img, starting at
// img.Header.StartingRip. String literals in img's appendix are copied
// into the VM's string arena and the push instructions that reference
// them are patched to hold a Ptr cell into that arena.
func New(img *Image, opts ...Option) (*Instance, error) {
	i := &Instance{
		rip:     img.Header.StartingRip,
		program: img.Program,
	}
	if err := i.loadStringLiterals(img.StringLits); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	if i.rip >= uint64(len(i.program)) && len(i.program) > 0 {
		return nil, errors.Errorf("starting rip %d out of range for program of size %d", i.rip, len(i.program))
	}
	return i, nil
}

// loadStringLiterals concatenates every literal into one arena buffer
// (each NUL-terminated, as the image format requires) and patches the
// operand of the instruction at each literal's recorded rip to a Ptr
// cell addressing its first byte.
func (i *Instance) loadStringLiterals(lits []StringLiteral) error {
	if len(lits) == 0 {
		return nil
	}
	total := 0
	for _, lit := range lits {
		total += len(lit.Bytes) + 1
	}
	arena := make([]byte, 0, total)
	for _, lit := range lits {
		if lit.Rip >= uint64(len(i.program)) {
			return errors.Errorf("string literal references out-of-range rip %d", lit.Rip)
		}
		offset := len(arena)
		arena = append(arena, lit.Bytes...)
		arena = append(arena, 0)
		i.program[lit.Rip].Operand = PtrCell(unsafe.Pointer(&arena[offset]))
	}
	i.stringArena = arena
	return nil
}

// Close releases resources acquired at construction time: the native
// library handle and, if the image was loaded with LoadMapped, the
// memory mapping. It is safe to call even if those options were never
// set.
func (i *Instance) Close() error {
	var firstErr error
	if i.closeNative != nil {
		if err := i.closeNative(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if i.closeImage != nil {
		if err := i.closeImage(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Rip returns the current instruction pointer.
func (i *Instance) Rip() uint64 { return i.rip }

// Sp returns the current stack depth.
func (i *Instance) Sp() uint64 { return i.sp }

// Halted reports whether the VM has executed a halt instruction.
func (i *Instance) Halted() bool { return i.halted }

// Fault returns the fault that stopped the run, or nil if the VM
// halted cleanly or has not yet run.
func (i *Instance) Fault() error { return i.fault }

// Stack returns the live portion of the data stack, bottom first.
// Mutating the returned slice mutates the VM's stack.
func (i *Instance) Stack() []Cell { return i.data[:i.sp] }

// Registers returns the register file. Mutating the returned slice
// mutates the VM's registers.
func (i *Instance) Registers() []Cell { return i.registers[:] }

// InstructionCount returns the number of instructions executed so far
// in the current run.
func (i *Instance) InstructionCount() uint64 { return i.insCount }
