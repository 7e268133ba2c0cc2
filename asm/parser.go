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
	"strconv"
	"strings"
	"unicode"

	"github.com/sfluorine/maya/vm"
)

// DeferredRef records an operand that could not be resolved at
// assembly time: the linker must look symbol up in the label table,
// then the macro table, and patch Program.Instructions[Rip].Operand.
type DeferredRef struct {
	Rip    uint64
	Symbol string
}

// NativeImport records an `extern NAME "symbol"` directive. Name is
// also entered into Program.Labels, with a value equal to its index
// in Natives, so that ordinary deferred-reference resolution handles
// `native NAME` without the linker needing a third table.
type NativeImport struct {
	Name   string
	Symbol string
}

// Program is the unlinked output of Assemble: an instruction vector
// plus every side table the linker needs to patch it.
type Program struct {
	Instructions []vm.Instruction
	StartRip     uint64
	HasEntry     bool

	Labels   map[string]uint64
	Deferred []DeferredRef
	Macros   map[string]vm.Cell
	Natives  []NativeImport

	StringLits []vm.StringLiteral
}

func newProgram() *Program {
	return &Program{
		Labels: make(map[string]uint64),
		Macros: make(map[string]vm.Cell),
	}
}

// parser holds the state threaded through one call to Assemble. A
// fresh parser (and Program) is created per call so that concurrent
// assemblies never share tables.
type parser struct {
	file string
	prog *Program

	entryName string
	entryLine int
}

func newParser(file string) *parser {
	return &parser{file: file, prog: newProgram()}
}

func (p *parser) errf(line int, tok string, err error) error {
	return &SyntaxError{File: p.file, Line: line, Token: tok, Err: err}
}

// token is one lexical element of a line: a bareword (mnemonic,
// identifier, number, label definition, directive keyword) or a
// double-quoted string literal.
type token struct {
	text   string
	isStr  bool
	strVal string
}

// tokenizeLine splits line at whitespace, treating a double-quoted
// span as one token and stopping at an unquoted '#' (start of a
// comment). It performs no escape decoding inside strings, per the
// lexical rule that string literals are taken verbatim.
func tokenizeLine(line string) ([]token, error) {
	var toks []token
	r := []rune(line)
	n := len(r)
	for i := 0; i < n; {
		switch {
		case unicode.IsSpace(r[i]):
			i++
		case r[i] == '#':
			i = n
		case r[i] == '"':
			j := i + 1
			for j < n && r[j] != '"' {
				j++
			}
			if j >= n {
				return nil, errUnterminatedString
			}
			toks = append(toks, token{text: string(r[i : j+1]), isStr: true, strVal: string(r[i+1 : j])})
			i = j + 1
		default:
			j := i
			for j < n && !unicode.IsSpace(r[j]) && r[j] != '#' {
				j++
			}
			toks = append(toks, token{text: string(r[i:j])})
			i = j
		}
	}
	return toks, nil
}

var errUnterminatedString = errQuoted("unterminated string literal")

type errQuoted string

func (e errQuoted) Error() string { return string(e) }

func isIdentStart(c byte) bool {
	return c == '_' || ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || ('0' <= c && c <= '9')
}

func isIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentCont(s[i]) {
			return false
		}
	}
	return true
}

// numKind classifies a numeric token: '0' for a plain signed integer,
// 'U' for an unsigned-suffixed integer, 'F' for a float (either a
// float literal or an integer with an 'F' suffix), or 0 if tok is not
// a valid number at all.
func numKind(tok string) byte {
	if tok == "" {
		return 0
	}
	body := tok
	suffix := byte(0)
	if last := body[len(body)-1]; last == 'U' || last == 'F' {
		suffix = last
		body = body[:len(body)-1]
	}
	if body == "" {
		return 0
	}
	if dot := strings.IndexByte(body, '.'); dot >= 0 {
		if suffix == 'U' {
			return 0
		}
		intPart, fracPart := body[:dot], body[dot+1:]
		if intPart == "" || fracPart == "" {
			return 0
		}
		if !allDigits(trimSign(intPart)) || !allDigits(fracPart) {
			return 0
		}
		return 'F'
	}
	if suffix == 'U' {
		if !allDigits(body) {
			return 0
		}
		return 'U'
	}
	if !allDigits(trimSign(body)) {
		return 0
	}
	if suffix == 0 {
		return '0'
	}
	return suffix
}

func trimSign(s string) string {
	if s != "" && (s[0] == '-' || s[0] == '+') {
		return s[1:]
	}
	return s
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// parseNumber converts tok (already classified by numKind) into a
// Cell under the appropriate view.
func parseNumber(tok string, kind byte) (vm.Cell, error) {
	switch kind {
	case '0':
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return 0, err
		}
		return vm.Int64Cell(v), nil
	case 'U':
		v, err := strconv.ParseUint(tok[:len(tok)-1], 10, 64)
		if err != nil {
			return 0, err
		}
		return vm.Uint64Cell(v), nil
	case 'F':
		body := tok
		if body[len(body)-1] == 'F' {
			body = body[:len(body)-1]
		}
		if strings.IndexByte(body, '.') >= 0 {
			v, err := strconv.ParseFloat(body, 64)
			if err != nil {
				return 0, err
			}
			return vm.Float64Cell(v), nil
		}
		v, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			return 0, err
		}
		return vm.Float64Cell(float64(v)), nil
	}
	panic("asm: parseNumber called with invalid kind")
}

// parseUint parses a dup/load/store/native-form operand: plain
// unsigned digits, optionally U-suffixed. Signed and float forms are
// rejected with ASM_INVALID_OPERAND by the caller.
func parseUint(tok string) (uint64, bool) {
	kind := numKind(tok)
	if kind != '0' && kind != 'U' {
		return 0, false
	}
	if strings.HasPrefix(tok, "-") {
		return 0, false
	}
	body := tok
	if kind == 'U' {
		body = tok[:len(tok)-1]
	}
	v, err := strconv.ParseUint(body, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// opKind describes how Assemble parses a mnemonic's operand.
type opKind int

const (
	opNone    opKind = iota // no operand
	opUint                  // dup/load/store: plain unsigned int
	opJump                  // jmp/ijeq/...: ident or uint, absolute rip
	opCall                  // call: ident only
	opNative                // native: uint or ident
	opPush                  // push: int/float/ident/string
)

type mnemonicDef struct {
	op   vm.Opcode
	kind opKind
}

var mnemonics = map[string]mnemonicDef{
	"halt":         {vm.OpHalt, opNone},
	"push":         {vm.OpPush, opPush},
	"pop":          {vm.OpPop, opNone},
	"dup":          {vm.OpDup, opUint},
	"iadd":         {vm.OpIadd, opNone},
	"isub":         {vm.OpIsub, opNone},
	"imul":         {vm.OpImul, opNone},
	"idiv":         {vm.OpIdiv, opNone},
	"fadd":         {vm.OpFadd, opNone},
	"fsub":         {vm.OpFsub, opNone},
	"fmul":         {vm.OpFmul, opNone},
	"fdiv":         {vm.OpFdiv, opNone},
	"jmp":          {vm.OpJmp, opJump},
	"ijeq":         {vm.OpIjeq, opJump},
	"ijneq":        {vm.OpIjneq, opJump},
	"ijgt":         {vm.OpIjgt, opJump},
	"ijlt":         {vm.OpIjlt, opJump},
	"fjeq":         {vm.OpFjeq, opJump},
	"fjneq":        {vm.OpFjneq, opJump},
	"fjgt":         {vm.OpFjgt, opJump},
	"fjlt":         {vm.OpFjlt, opJump},
	"call":         {vm.OpCall, opCall},
	"native":       {vm.OpNative, opNative},
	"ret":          {vm.OpRet, opNone},
	"load":         {vm.OpLoad, opUint},
	"store":        {vm.OpStore, opUint},
	"idebug_print": {vm.OpDebugPrintInt, opNone},
	"fdebug_print": {vm.OpDebugPrintDouble, opNone},
	"cdebug_print": {vm.OpDebugPrintChar, opNone},
}

// rip returns the index the next emitted instruction will occupy.
func (p *parser) rip() uint64 { return uint64(len(p.prog.Instructions)) }

func (p *parser) emit(op vm.Opcode, operand vm.Cell) {
	p.prog.Instructions = append(p.prog.Instructions, vm.Instruction{Opcode: op, Operand: operand})
}

// defer_ records a pending reference to symbol at the instruction just
// emitted. Every call site emits the placeholder instruction first, so
// the rip to patch is always the last one appended, not the next one.
func (p *parser) defer_(symbol string) {
	p.prog.Deferred = append(p.prog.Deferred, DeferredRef{Rip: p.rip() - 1, Symbol: symbol})
}

// defineLabel registers name at the current rip, failing if name
// collides with an existing label or macro.
func (p *parser) defineLabel(line int, name string) error {
	if _, ok := p.prog.Macros[name]; ok {
		return p.errf(line, name, ErrDuplicateSymbol)
	}
	if _, ok := p.prog.Labels[name]; ok {
		return p.errf(line, name, ErrDuplicateSymbol)
	}
	p.prog.Labels[name] = p.rip()
	return nil
}

func (p *parser) defineMacro(line int, name string, v vm.Cell) error {
	if _, ok := p.prog.Labels[name]; ok {
		return p.errf(line, name, ErrDuplicateSymbol)
	}
	if _, ok := p.prog.Macros[name]; ok {
		return p.errf(line, name, ErrDuplicateSymbol)
	}
	p.prog.Macros[name] = v
	return nil
}

// parseLine dispatches a tokenized line to a label definition, a
// directive, or an instruction. Any tokens left over once that single
// construct is consumed are ASM_TRAILING_GARBAGE.
func (p *parser) parseLine(line int, toks []token) error {
	if len(toks) == 0 {
		return nil
	}
	head := toks[0]

	// label definition: bareword ending in ':'.
	if !head.isStr && len(head.text) > 1 && head.text[len(head.text)-1] == ':' {
		name := head.text[:len(head.text)-1]
		if !isIdentifier(name) {
			return p.errf(line, head.text, ErrInvalidOperand)
		}
		if len(toks) > 1 {
			return p.errf(line, toks[1].text, ErrTrailingGarbage)
		}
		return p.defineLabel(line, name)
	}

	if !head.isStr && head.text == "%define" {
		return p.parseDefine(line, toks)
	}
	if !head.isStr && head.text == "entry" {
		return p.parseEntry(line, toks)
	}
	if !head.isStr && head.text == "extern" {
		return p.parseExtern(line, toks)
	}

	return p.parseInstruction(line, toks)
}

func (p *parser) parseDefine(line int, toks []token) error {
	if len(toks) < 3 {
		return p.errf(line, "%define", ErrExpectedOperand)
	}
	if len(toks) > 3 {
		return p.errf(line, toks[3].text, ErrTrailingGarbage)
	}
	name, val := toks[1], toks[2]
	if name.isStr || !isIdentifier(name.text) {
		return p.errf(line, name.text, ErrInvalidOperand)
	}
	if val.isStr {
		return p.errf(line, val.text, ErrInvalidOperand)
	}
	kind := numKind(val.text)
	if kind == 0 {
		return p.errf(line, val.text, ErrInvalidOperand)
	}
	cell, err := parseNumber(val.text, kind)
	if err != nil {
		return p.errf(line, val.text, ErrInvalidOperand)
	}
	return p.defineMacro(line, name.text, cell)
}

func (p *parser) parseEntry(line int, toks []token) error {
	if len(toks) < 2 {
		return p.errf(line, "entry", ErrExpectedOperand)
	}
	if len(toks) > 2 {
		return p.errf(line, toks[2].text, ErrTrailingGarbage)
	}
	if toks[1].isStr || !isIdentifier(toks[1].text) {
		return p.errf(line, toks[1].text, ErrInvalidOperand)
	}
	p.entryName = toks[1].text
	p.entryLine = line
	p.prog.HasEntry = true
	return nil
}

func (p *parser) parseExtern(line int, toks []token) error {
	if len(toks) < 3 {
		return p.errf(line, "extern", ErrExpectedOperand)
	}
	if len(toks) > 3 {
		return p.errf(line, toks[3].text, ErrTrailingGarbage)
	}
	name, sym := toks[1], toks[2]
	if name.isStr || !isIdentifier(name.text) {
		return p.errf(line, name.text, ErrInvalidOperand)
	}
	if !sym.isStr {
		return p.errf(line, sym.text, ErrInvalidOperand)
	}
	if _, ok := p.prog.Labels[name.text]; ok {
		return p.errf(line, name.text, ErrDuplicateSymbol)
	}
	if _, ok := p.prog.Macros[name.text]; ok {
		return p.errf(line, name.text, ErrDuplicateSymbol)
	}
	p.prog.Labels[name.text] = uint64(len(p.prog.Natives))
	p.prog.Natives = append(p.prog.Natives, NativeImport{Name: name.text, Symbol: sym.strVal})
	return nil
}

func (p *parser) parseInstruction(line int, toks []token) error {
	head := toks[0]
	if head.isStr {
		return p.errf(line, head.text, ErrUnknownOpcode)
	}
	def, ok := mnemonics[head.text]
	if !ok {
		return p.errf(line, head.text, ErrUnknownOpcode)
	}

	rest := toks[1:]
	switch def.kind {
	case opNone:
		if len(rest) > 0 {
			return p.errf(line, rest[0].text, ErrTrailingGarbage)
		}
		p.emit(def.op, 0)
		return nil

	case opUint:
		if len(rest) == 0 {
			return p.errf(line, head.text, ErrExpectedOperand)
		}
		if len(rest) > 1 {
			return p.errf(line, rest[1].text, ErrTrailingGarbage)
		}
		if rest[0].isStr {
			return p.errf(line, rest[0].text, ErrInvalidOperand)
		}
		v, ok := parseUint(rest[0].text)
		if !ok {
			return p.errf(line, rest[0].text, ErrInvalidOperand)
		}
		p.emit(def.op, vm.Uint64Cell(v))
		return nil

	case opJump:
		if len(rest) == 0 {
			return p.errf(line, head.text, ErrExpectedOperand)
		}
		if len(rest) > 1 {
			return p.errf(line, rest[1].text, ErrTrailingGarbage)
		}
		return p.emitSymbolicOrUint(line, def.op, rest[0])

	case opCall:
		if len(rest) == 0 {
			return p.errf(line, head.text, ErrExpectedOperand)
		}
		if len(rest) > 1 {
			return p.errf(line, rest[1].text, ErrTrailingGarbage)
		}
		if rest[0].isStr || !isIdentifier(rest[0].text) {
			return p.errf(line, rest[0].text, ErrInvalidOperand)
		}
		p.emit(def.op, 0)
		p.defer_(rest[0].text)
		return nil

	case opNative:
		if len(rest) == 0 {
			return p.errf(line, head.text, ErrExpectedOperand)
		}
		if len(rest) > 1 {
			return p.errf(line, rest[1].text, ErrTrailingGarbage)
		}
		return p.emitSymbolicOrUint(line, def.op, rest[0])

	case opPush:
		if len(rest) == 0 {
			return p.errf(line, head.text, ErrExpectedOperand)
		}
		if len(rest) > 1 {
			return p.errf(line, rest[1].text, ErrTrailingGarbage)
		}
		return p.parsePushOperand(line, rest[0])
	}
	panic("asm: unhandled operand kind")
}

// emitSymbolicOrUint handles the jmp/ijeq/.../native operand form,
// which accepts either a plain unsigned rip or an identifier that
// resolves to a deferred reference.
func (p *parser) emitSymbolicOrUint(line int, op vm.Opcode, tok token) error {
	if tok.isStr {
		return p.errf(line, tok.text, ErrInvalidOperand)
	}
	if isIdentifier(tok.text) {
		p.emit(op, 0)
		p.defer_(tok.text)
		return nil
	}
	v, ok := parseUint(tok.text)
	if !ok {
		return p.errf(line, tok.text, ErrInvalidOperand)
	}
	p.emit(op, vm.Uint64Cell(v))
	return nil
}

func (p *parser) parsePushOperand(line int, tok token) error {
	if tok.isStr {
		p.emit(vm.OpPush, 0)
		p.prog.StringLits = append(p.prog.StringLits, vm.StringLiteral{
			Bytes: []byte(tok.strVal),
			Rip:   p.rip() - 1,
		})
		return nil
	}
	if isIdentifier(tok.text) {
		p.emit(vm.OpPush, 0)
		p.defer_(tok.text)
		return nil
	}
	kind := numKind(tok.text)
	if kind == 0 {
		return p.errf(line, tok.text, ErrInvalidOperand)
	}
	cell, err := parseNumber(tok.text, kind)
	if err != nil {
		return p.errf(line, tok.text, ErrInvalidOperand)
	}
	p.emit(vm.OpPush, cell)
	return nil
}
