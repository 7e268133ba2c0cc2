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

// Package link resolves the deferred references an assembled image
// carries into concrete operands, rewriting the image file in place.
//
// Link reads the side-table sidecar next to the image (the one
// asm.Program.Save wrote), looks each deferred symbol up first in the
// label table, then in the macro table, and patches the referenced
// instruction's operand. The string-literal appendix is carried
// through untouched. Running Link again on an already-linked image is
// a no-op: once every deferred reference is drained there is nothing
// left to resolve.
package link

import (
	"github.com/pkg/errors"

	"github.com/sfluorine/maya/asm"
	"github.com/sfluorine/maya/vm"
)

// Sentinel fault kinds the linker can raise.
var (
	ErrUnresolved      = errors.New("LINK_UNRESOLVED")
	ErrDuplicateSymbol = errors.New("LINK_DUPLICATE")
)

// Link patches every deferred reference recorded for the image at
// path, using the side tables in path+asm.SideTableSuffix, then
// rewrites both files. It is safe to call on an image with no pending
// references.
func Link(path string) error {
	img, err := vm.Load(path)
	if err != nil {
		return errors.Wrap(err, "loading image")
	}

	tabs, err := asm.LoadSideTables(path + asm.SideTableSuffix)
	if err != nil {
		return errors.Wrap(err, "loading side tables")
	}

	if err := checkDuplicates(tabs); err != nil {
		return err
	}

	for _, ref := range tabs.Deferred {
		cell, resolved := resolve(tabs, ref.Symbol)
		if !resolved {
			return errors.Wrapf(ErrUnresolved, "%s", ref.Symbol)
		}
		if ref.Rip >= uint64(len(img.Program)) {
			return errors.Errorf("deferred reference at out-of-range rip %d", ref.Rip)
		}
		img.Program[ref.Rip].Operand = cell
	}
	tabs.Deferred = nil

	if err := img.Save(path); err != nil {
		return errors.Wrap(err, "writing image")
	}
	return asm.SaveSideTables(path+asm.SideTableSuffix, tabs)
}

// resolve looks symbol up in the label table, then the macro table.
func resolve(tabs *asm.SideTables, symbol string) (vm.Cell, bool) {
	if rip, ok := tabs.Labels[symbol]; ok {
		return vm.Uint64Cell(rip), true
	}
	if v, ok := tabs.Macros[symbol]; ok {
		return v, true
	}
	return 0, false
}

// checkDuplicates re-checks label/macro name collisions for defense
// in depth: the assembler already rejects these, but a hand-edited
// side table should not silently corrupt the image.
func checkDuplicates(tabs *asm.SideTables) error {
	for name := range tabs.Labels {
		if _, ok := tabs.Macros[name]; ok {
			return errors.Wrapf(ErrDuplicateSymbol, "%s", name)
		}
	}
	return nil
}
