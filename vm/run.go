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
	"fmt"

	"github.com/pkg/errors"
)

// push places v on top of the data stack, one opcode case at a time,
// same way core.go's dispatch updates rip inline rather than in a
// shared epilogue.
func (i *Instance) push(v Cell) error {
	if i.sp >= StackSize {
		return ErrStackOverflow
	}
	i.data[i.sp] = v
	i.sp++
	return nil
}

func (i *Instance) pop() (Cell, error) {
	if i.sp == 0 {
		return 0, ErrStackUnderflow
	}
	i.sp--
	return i.data[i.sp], nil
}

// Push places v on top of the data stack. Native functions use this
// to return values to the guest program.
func (i *Instance) Push(v Cell) error { return i.push(v) }

// Pop removes and returns the top of the data stack. Native functions
// use this to receive their arguments.
func (i *Instance) Pop() (Cell, error) { return i.pop() }

// RawStack exposes a pointer to the data stack's backing array and to
// the live stack depth, for native code loaded from a shared library
// that cannot share Go's calling convention and must operate on raw
// memory instead.
func (i *Instance) RawStack() (*[StackSize]Cell, *uint64) { return &i.data, &i.sp }

// Run executes instructions starting at the VM's current rip until a
// halt or a fault (including a non-nil error from a native function). If an error is returned
// it is already annotated with the rip and stack depth at which it
// occurred; the underlying sentinel can be recovered with errors.Is.
func (i *Instance) Run() error {
	i.insCount = 0
	for !i.halted {
		if i.rip >= uint64(len(i.program)) {
			return i.fail(ErrInvalidInstruction)
		}
		ins := i.program[i.rip]
		if err := i.step(ins); err != nil {
			return i.fail(err)
		}
		i.insCount++
	}
	return nil
}

// step executes a single instruction and advances (or sets) rip.
func (i *Instance) step(ins Instruction) error {
	switch ins.Opcode {
	case OpHalt:
		i.halted = true
		return nil

	case OpPush:
		if err := i.push(ins.Operand); err != nil {
			return err
		}
		i.rip++

	case OpPop:
		if _, err := i.pop(); err != nil {
			return err
		}
		i.rip++

	case OpDup:
		n := ins.Operand.Uint64()
		if n < 1 || n > i.sp {
			return ErrStackUnderflow
		}
		if err := i.push(i.data[i.sp-n]); err != nil {
			return err
		}
		i.rip++

	case OpIadd, OpIsub, OpImul, OpIdiv:
		if err := i.intBinOp(ins.Opcode); err != nil {
			return err
		}
		i.rip++

	case OpFadd, OpFsub, OpFmul, OpFdiv:
		if err := i.floatBinOp(ins.Opcode); err != nil {
			return err
		}
		i.rip++

	case OpJmp:
		i.rip = ins.Operand.Uint64()

	case OpIjeq, OpIjneq, OpIjgt, OpIjlt:
		taken, err := i.intCompare(ins.Opcode)
		if err != nil {
			return err
		}
		if taken {
			i.rip = ins.Operand.Uint64()
		} else {
			i.rip++
		}

	case OpFjeq, OpFjneq, OpFjgt, OpFjlt:
		taken, err := i.floatCompare(ins.Opcode)
		if err != nil {
			return err
		}
		if taken {
			i.rip = ins.Operand.Uint64()
		} else {
			i.rip++
		}

	case OpCall:
		i.registers[regReturnAddr] = Uint64Cell(i.rip + 1)
		i.registers[regStackSave] = Uint64Cell(i.sp)
		i.rip = ins.Operand.Uint64()

	case OpRet:
		// The callee leaves exactly one value on top of its frame to
		// hand back to the caller; sp is restored to its pre-call
		// depth and that one value is carried across the restore so
		// the caller's stack is unchanged except for the value it
		// explicitly received.
		v, err := i.pop()
		if err != nil {
			return err
		}
		i.sp = i.registers[regStackSave].Uint64()
		if err := i.push(v); err != nil {
			return err
		}
		i.rip = i.registers[regReturnAddr].Uint64()

	case OpNative:
		n := ins.Operand.Uint64()
		if n >= uint64(len(i.natives)) {
			return ErrInvalidOperand
		}
		if i.sp < 1 {
			return ErrStackUnderflow
		}
		if err := i.natives[n](i); err != nil {
			return err
		}
		i.rip++

	case OpLoad:
		r := ins.Operand.Uint64()
		if r >= RegisterCount {
			return ErrInvalidOperand
		}
		if err := i.push(i.registers[r]); err != nil {
			return err
		}
		i.rip++

	case OpStore:
		r := ins.Operand.Uint64()
		if r >= RegisterCount {
			return ErrInvalidOperand
		}
		v, err := i.pop()
		if err != nil {
			return err
		}
		i.registers[r] = v
		i.rip++

	case OpDebugPrintInt:
		v, err := i.pop()
		if err != nil {
			return err
		}
		fmt.Println(v.Int64())
		i.rip++

	case OpDebugPrintDouble:
		v, err := i.pop()
		if err != nil {
			return err
		}
		fmt.Println(v.Float64())
		i.rip++

	case OpDebugPrintChar:
		v, err := i.pop()
		if err != nil {
			return err
		}
		fmt.Printf("%c", rune(v.Int64()))
		i.rip++

	default:
		return ErrInvalidInstruction
	}
	return nil
}

// intBinOp pops two cells, applies op under the signed-integer view
// with NOS as the left operand and TOS as the right, and pushes the
// result. Signed overflow wraps (two's-complement), matching idiv's
// only fault being a zero divisor.
func (i *Instance) intBinOp(op Opcode) error {
	rhs, err := i.pop()
	if err != nil {
		return err
	}
	lhs, err := i.pop()
	if err != nil {
		return err
	}
	var result int64
	switch op {
	case OpIadd:
		result = lhs.Int64() + rhs.Int64()
	case OpIsub:
		result = lhs.Int64() - rhs.Int64()
	case OpImul:
		result = lhs.Int64() * rhs.Int64()
	case OpIdiv:
		if rhs.Int64() == 0 {
			return ErrDivByZero
		}
		result = lhs.Int64() / rhs.Int64()
	}
	return i.push(Int64Cell(result))
}

// floatBinOp is intBinOp's IEEE-754 double counterpart. Division
// follows ordinary IEEE rules (inf/NaN), never faulting.
func (i *Instance) floatBinOp(op Opcode) error {
	rhs, err := i.pop()
	if err != nil {
		return err
	}
	lhs, err := i.pop()
	if err != nil {
		return err
	}
	var result float64
	switch op {
	case OpFadd:
		result = lhs.Float64() + rhs.Float64()
	case OpFsub:
		result = lhs.Float64() - rhs.Float64()
	case OpFmul:
		result = lhs.Float64() * rhs.Float64()
	case OpFdiv:
		result = lhs.Float64() / rhs.Float64()
	}
	return i.push(Float64Cell(result))
}

// intCompare pops b then a and evaluates op's predicate on (a, b)
// under the signed-integer view.
func (i *Instance) intCompare(op Opcode) (bool, error) {
	b, err := i.pop()
	if err != nil {
		return false, err
	}
	a, err := i.pop()
	if err != nil {
		return false, err
	}
	switch op {
	case OpIjeq:
		return a.Int64() == b.Int64(), nil
	case OpIjneq:
		return a.Int64() != b.Int64(), nil
	case OpIjgt:
		return a.Int64() > b.Int64(), nil
	case OpIjlt:
		return a.Int64() < b.Int64(), nil
	}
	panic("unreachable")
}

// floatCompare is intCompare's IEEE-754 double counterpart.
func (i *Instance) floatCompare(op Opcode) (bool, error) {
	b, err := i.pop()
	if err != nil {
		return false, err
	}
	a, err := i.pop()
	if err != nil {
		return false, err
	}
	switch op {
	case OpFjeq:
		return a.Float64() == b.Float64(), nil
	case OpFjneq:
		return a.Float64() != b.Float64(), nil
	case OpFjgt:
		return a.Float64() > b.Float64(), nil
	case OpFjlt:
		return a.Float64() < b.Float64(), nil
	}
	panic("unreachable")
}

// fail records err as the terminal fault and wraps it with positional
// context, matching core.go's recover-into-wrapped-error pattern.
func (i *Instance) fail(err error) error {
	i.fault = err
	return errors.Wrapf(err, "rip=%d sp=%d", i.rip, i.sp)
}
