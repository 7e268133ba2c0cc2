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

// Opcode identifies the operation an Instruction performs. Tag values
// are assigned in declaration order and are part of the on-disk image
// format: changing this order breaks every existing .maya file.
type Opcode uint32

// MAYA Virtual Machine Opcodes.
const (
	OpHalt Opcode = iota
	OpPush
	OpPop
	OpDup
	OpIadd
	OpFadd
	OpIsub
	OpFsub
	OpImul
	OpFmul
	OpIdiv
	OpFdiv
	OpJmp
	OpIjeq
	OpFjeq
	OpIjneq
	OpFjneq
	OpIjgt
	OpFjgt
	OpIjlt
	OpFjlt
	OpCall
	OpNative
	OpRet
	OpLoad
	OpStore
	// Optional debug opcodes, appended after the canonical set so their
	// presence never perturbs the tag values above them.
	OpDebugPrintInt
	OpDebugPrintDouble
	OpDebugPrintChar
)

var opcodes = [...]string{
	OpHalt:             "halt",
	OpPush:             "push",
	OpPop:              "pop",
	OpDup:              "dup",
	OpIadd:             "iadd",
	OpFadd:             "fadd",
	OpIsub:             "isub",
	OpFsub:             "fsub",
	OpImul:             "imul",
	OpFmul:             "fmul",
	OpIdiv:             "idiv",
	OpFdiv:             "fdiv",
	OpJmp:              "jmp",
	OpIjeq:             "ijeq",
	OpFjeq:             "fjeq",
	OpIjneq:            "ijneq",
	OpFjneq:            "fjneq",
	OpIjgt:             "ijgt",
	OpFjgt:             "fjgt",
	OpIjlt:             "ijlt",
	OpFjlt:             "fjlt",
	OpCall:             "call",
	OpNative:           "native",
	OpRet:              "ret",
	OpLoad:             "load",
	OpStore:            "store",
	OpDebugPrintInt:    "idebug_print",
	OpDebugPrintDouble: "fdebug_print",
	OpDebugPrintChar:   "cdebug_print",
}

var opcodeIndex = make(map[string]Opcode)

func init() {
	for i, v := range opcodes {
		opcodeIndex[v] = Opcode(i)
	}
}

// String returns the assembly mnemonic for op, or "???" for a tag with
// no known mnemonic (such as one read back from a corrupt image).
func (op Opcode) String() string {
	if int(op) < len(opcodes) && opcodes[op] != "" {
		return opcodes[op]
	}
	return "???"
}

// HasOperand reports whether op's operand cell is meaningful. Used by
// the disassembler to decide whether to print the operand.
func (op Opcode) HasOperand() bool {
	switch op {
	case OpHalt, OpPop, OpIadd, OpFadd, OpIsub, OpFsub, OpImul, OpFmul,
		OpIdiv, OpFdiv, OpRet,
		OpDebugPrintInt, OpDebugPrintDouble, OpDebugPrintChar:
		return false
	default:
		return true
	}
}
