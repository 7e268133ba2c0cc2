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

// Package asm assembles MAYA source into an unlinked image and
// disassembles an image back into text.
//
// Source is line oriented: each logical line holds exactly one label
// definition, one directive, or one instruction. A '#' begins a
// comment that runs to end of line. Tokens are separated by
// whitespace; a double-quoted string counts as a single token and is
// not escape-decoded.
//
//	mnemonic [operand]
//	label:
//	%define NAME VALUE
//	entry NAME
//	extern NAME "symbol"
//
// An integer operand takes an optional U (unsigned) or F (float,
// coerced from the integer) suffix; a float operand is written
// digits '.' digits with an optional trailing F. An operand may also
// be an identifier naming a label, a %define macro, or (for native)
// an extern import: Assemble records these as deferred references for
// the linker rather than resolving them itself, even when the symbol
// is already defined earlier in the same file.
//
// Mnemonics:
//
//	halt			stop; does not advance rip
//	push OPERAND		push an immediate int/float/label address/string
//	pop			discard TOS
//	dup N			push stack[sp-N]
//	iadd/isub/imul/idiv	signed 64 bit arithmetic; idiv faults on zero
//	fadd/fsub/fmul/fdiv	IEEE-754 double arithmetic
//	jmp L			unconditional jump to L
//	ijeq/ijneq/ijgt/ijlt L	pop b, a; branch to L if a<op>b (signed)
//	fjeq/fjneq/fjgt/fjlt L	pop b, a; branch to L if a<op>b (double)
//	call L			save return rip and sp, jump to L
//	native N		invoke natives[N]
//	ret			pop TOS, restore rip and sp saved by call, push TOS back
//	load R			push register R (0..6)
//	store R			pop into register R (0..6)
//	idebug_print		pop and print as a signed integer
//	fdebug_print		pop and print as a double
//	cdebug_print		pop and print as a character
package asm
