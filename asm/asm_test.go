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

package asm_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/sfluorine/maya/asm"
	"github.com/sfluorine/maya/vm"
)

func assembleString(t *testing.T, src string) *asm.Program {
	t.Helper()
	prog, err := asm.Assemble("test", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return prog
}

func TestAssembleFactorial(t *testing.T) {
	prog := assembleString(t, `
entry main
main:
  push 1
  store 0
  push 1
loop:
  load 0
  push 1
  iadd
  dup 1
  store 0
  imul
  load 0
  push 12
  ijneq loop
  halt
`)
	if !prog.HasEntry {
		t.Fatal("expected HasEntry")
	}
	if rip, ok := prog.Labels["main"]; !ok || rip != 0 {
		t.Fatalf("label main = %d, %v, want 0, true", rip, ok)
	}
	if rip, ok := prog.Labels["loop"]; !ok || rip != 3 {
		t.Fatalf("label loop = %d, %v, want 3, true", rip, ok)
	}
	if len(prog.Deferred) != 1 || prog.Deferred[0].Symbol != "loop" {
		t.Fatalf("Deferred = %+v, want one reference to loop", prog.Deferred)
	}
	if len(prog.Instructions) != 13 {
		t.Fatalf("len(Instructions) = %d, want 13", len(prog.Instructions))
	}
	if prog.Instructions[12].Opcode != vm.OpHalt {
		t.Fatalf("last instruction = %v, want halt", prog.Instructions[12].Opcode)
	}
}

func TestAssembleUnknownOpcode(t *testing.T) {
	_, err := asm.Assemble("t", strings.NewReader("frobnicate"))
	if !errors.Is(err, asm.ErrUnknownOpcode) {
		t.Fatalf("err = %v, want ASM_UNKNOWN_OPCODE", err)
	}
}

func TestAssembleInvalidOperand(t *testing.T) {
	_, err := asm.Assemble("t", strings.NewReader("dup 1.5"))
	if !errors.Is(err, asm.ErrInvalidOperand) {
		t.Fatalf("err = %v, want ASM_INVALID_OPERAND", err)
	}
}

func TestAssembleExpectedOperand(t *testing.T) {
	_, err := asm.Assemble("t", strings.NewReader("push"))
	if !errors.Is(err, asm.ErrExpectedOperand) {
		t.Fatalf("err = %v, want ASM_EXPECTED_OPERAND", err)
	}
}

func TestAssembleTrailingGarbage(t *testing.T) {
	_, err := asm.Assemble("t", strings.NewReader("halt now"))
	if !errors.Is(err, asm.ErrTrailingGarbage) {
		t.Fatalf("err = %v, want ASM_TRAILING_GARBAGE", err)
	}
}

func TestAssembleUndefinedEntry(t *testing.T) {
	_, err := asm.Assemble("t", strings.NewReader("entry nope\nhalt"))
	if !errors.Is(err, asm.ErrUndefinedEntry) {
		t.Fatalf("err = %v, want ASM_UNDEFINED_ENTRY", err)
	}
}

func TestAssembleDuplicateLabel(t *testing.T) {
	_, err := asm.Assemble("t", strings.NewReader("a:\nhalt\na:\nhalt\n"))
	if !errors.Is(err, asm.ErrDuplicateSymbol) {
		t.Fatalf("err = %v, want ASM_DUPLICATE_SYMBOL", err)
	}
}

func TestAssembleLabelMacroCollision(t *testing.T) {
	_, err := asm.Assemble("t", strings.NewReader("%define a 1\na:\nhalt\n"))
	if !errors.Is(err, asm.ErrDuplicateSymbol) {
		t.Fatalf("err = %v, want ASM_DUPLICATE_SYMBOL", err)
	}
}

func TestAssembleMacro(t *testing.T) {
	prog := assembleString(t, "%define ANSWER 42\npush ANSWER\nhalt\n")
	if v, ok := prog.Macros["ANSWER"]; !ok || v.Int64() != 42 {
		t.Fatalf("Macros[ANSWER] = %v, %v, want 42, true", v, ok)
	}
	if len(prog.Deferred) != 1 || prog.Deferred[0].Symbol != "ANSWER" {
		t.Fatalf("Deferred = %+v, want one reference to ANSWER", prog.Deferred)
	}
}

func TestAssembleStringLiteral(t *testing.T) {
	prog := assembleString(t, `push "hi"` + "\nnative 0\nhalt\n")
	if len(prog.StringLits) != 1 || string(prog.StringLits[0].Bytes) != "hi" {
		t.Fatalf("StringLits = %+v, want [{hi 0}]", prog.StringLits)
	}
	if prog.StringLits[0].Rip != 0 {
		t.Fatalf("StringLits[0].Rip = %d, want 0", prog.StringLits[0].Rip)
	}
}

func TestAssembleExtern(t *testing.T) {
	prog := assembleString(t, `extern PRINT_STR "maya_print_str"` + "\nnative PRINT_STR\nhalt\n")
	if len(prog.Natives) != 1 || prog.Natives[0].Symbol != "maya_print_str" {
		t.Fatalf("Natives = %+v", prog.Natives)
	}
	if rip, ok := prog.Labels["PRINT_STR"]; !ok || rip != 0 {
		t.Fatalf("Labels[PRINT_STR] = %d, %v, want 0, true", rip, ok)
	}
}

func TestAssembleNumberSuffixes(t *testing.T) {
	prog := assembleString(t, "push 5U\npush 2.5F\npush 3F\nhalt\n")
	if prog.Instructions[0].Operand.Uint64() != 5 {
		t.Fatalf("push 5U operand = %d, want 5", prog.Instructions[0].Operand.Uint64())
	}
	if prog.Instructions[1].Operand.Float64() != 2.5 {
		t.Fatalf("push 2.5F operand = %v, want 2.5", prog.Instructions[1].Operand.Float64())
	}
	if prog.Instructions[2].Operand.Float64() != 3.0 {
		t.Fatalf("push 3F operand = %v, want 3.0 (coerced)", prog.Instructions[2].Operand.Float64())
	}
}

func TestAssembleComment(t *testing.T) {
	prog := assembleString(t, "halt # trailing comment\n")
	if len(prog.Instructions) != 1 || prog.Instructions[0].Opcode != vm.OpHalt {
		t.Fatalf("Instructions = %+v, want [halt]", prog.Instructions)
	}
}
