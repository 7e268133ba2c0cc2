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
	"bufio"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/sfluorine/maya/vm"
)

// SideTableSuffix is appended to an image path to name the sidecar
// file that carries the label, deferred-reference, macro and native
// import tables across the assembler/linker process boundary. The
// image format itself has no room for them.
const SideTableSuffix = ".sym"

// SideTables is the gob-encoded sidecar Link reads to resolve
// Program.Deferred against Program.Labels and Program.Macros.
type SideTables struct {
	Labels   map[string]uint64
	Deferred []DeferredRef
	Macros   map[string]vm.Cell
	Natives  []NativeImport
}

// Assemble reads MAYA source from r and produces an unlinked Program.
// name is used only to annotate errors (typically the source file
// name). Assemble performs a single pass: label and macro references
// are always recorded as deferred, even when the definition precedes
// the use, so the result never depends on declaration order.
func Assemble(name string, r io.Reader) (*Program, error) {
	p := newParser(name)
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 4096), 1<<20)

	line := 0
	for scan.Scan() {
		line++
		toks, err := tokenizeLine(scan.Text())
		if err != nil {
			return nil, p.errf(line, "", err)
		}
		if err := p.parseLine(line, toks); err != nil {
			return nil, err
		}
	}
	if err := scan.Err(); err != nil {
		return nil, errors.Wrap(err, "reading source")
	}

	if p.entryName != "" {
		rip, ok := p.prog.Labels[p.entryName]
		if !ok {
			return nil, p.errf(p.entryLine, p.entryName, ErrUndefinedEntry)
		}
		p.prog.StartRip = rip
	}

	return p.prog, nil
}

// Image converts Program into the on-disk image representation. The
// returned Image still carries unresolved (zeroed) operands wherever
// Program.Deferred records a pending reference; Link must run before
// the image can be executed.
func (p *Program) Image() *vm.Image {
	return &vm.Image{
		Header:     vm.Header{StartingRip: p.StartRip},
		Program:    p.Instructions,
		StringLits: p.StringLits,
	}
}

// SideTables extracts the side tables Link needs, independent of the
// instruction vector itself.
func (p *Program) SideTables() *SideTables {
	return &SideTables{
		Labels:   p.Labels,
		Deferred: p.Deferred,
		Macros:   p.Macros,
		Natives:  p.Natives,
	}
}

// Save writes the unlinked image to path and its side tables to
// path+SideTableSuffix.
func (p *Program) Save(path string) error {
	if err := p.Image().Save(path); err != nil {
		return err
	}
	return SaveSideTables(path+SideTableSuffix, p.SideTables())
}

// SaveSideTables gob-encodes tabs to path.
func SaveSideTables(path string, tabs *SideTables) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return errors.Wrap(err, "create side table file")
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := gob.NewEncoder(w).Encode(tabs); err != nil {
		return errors.Wrap(err, "encoding side tables")
	}
	return w.Flush()
}

// LoadSideTables decodes the sidecar written by SaveSideTables.
func LoadSideTables(path string) (*SideTables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open side table file")
	}
	defer f.Close()
	var tabs SideTables
	if err := gob.NewDecoder(bufio.NewReader(f)).Decode(&tabs); err != nil {
		return nil, errors.Wrap(err, "decoding side tables")
	}
	return &tabs, nil
}

// Disassemble writes a textual listing of img's instruction vector to
// w, one instruction per line prefixed with its rip. String push
// operands that address a recorded string literal are annotated with
// the literal's text.
func Disassemble(img *vm.Image, w io.Writer) error {
	litAt := make(map[uint64]string, len(img.StringLits))
	for _, lit := range img.StringLits {
		litAt[lit.Rip] = string(lit.Bytes)
	}
	for rip, ins := range img.Program {
		if _, err := fmt.Fprintf(w, "%6d: %s", rip, ins.Opcode); err != nil {
			return err
		}
		if s, ok := litAt[uint64(rip)]; ok {
			if _, err := fmt.Fprintf(w, " %q", s); err != nil {
				return err
			}
		} else if ins.Opcode.HasOperand() {
			if _, err := fmt.Fprintf(w, " %d", ins.Operand.Int64()); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
