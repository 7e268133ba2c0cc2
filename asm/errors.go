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

package asm

import (
	"errors"
	"fmt"
)

// Sentinel fault kinds the assembler can raise. Use errors.Is against
// these; a SyntaxError wraps one of them with file/line/token context,
// except for an unterminated string literal, which it reports with a
// lexer error that matches none of them.
var (
	ErrUnknownOpcode   = errors.New("ASM_UNKNOWN_OPCODE")
	ErrInvalidOperand  = errors.New("ASM_INVALID_OPERAND")
	ErrExpectedOperand = errors.New("ASM_EXPECTED_OPERAND")
	ErrTrailingGarbage = errors.New("ASM_TRAILING_GARBAGE")
	ErrUndefinedEntry  = errors.New("ASM_UNDEFINED_ENTRY")
	ErrDuplicateSymbol = errors.New("ASM_DUPLICATE_SYMBOL")
)

// SyntaxError pinpoints a single assembly fault.
type SyntaxError struct {
	File  string
	Line  int
	Token string
	Err   error
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v: %q", e.File, e.Line, e.Err, e.Token)
}

func (e *SyntaxError) Unwrap() error { return e.Err }
