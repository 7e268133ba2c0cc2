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

package nativelib_test

import (
	"bytes"
	"strings"
	"testing"
	"unsafe"

	"github.com/sfluorine/maya/nativelib"
	"github.com/sfluorine/maya/vm"
)

func bareInstance(t *testing.T) *vm.Instance {
	t.Helper()
	img := &vm.Image{Program: []vm.Instruction{{Opcode: vm.OpHalt}}}
	i, err := vm.New(img)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return i
}

func TestBuiltinPrintI64(t *testing.T) {
	var buf bytes.Buffer
	lib := nativelib.Builtin(&buf)
	fn, ok := lib.Lookup("maya_print_i64")
	if !ok {
		t.Fatal("maya_print_i64 not found")
	}
	i := bareInstance(t)
	if err := i.Push(vm.Int64Cell(-7)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := fn(i); err != nil {
		t.Fatalf("maya_print_i64: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "-7" {
		t.Fatalf("output = %q, want %q", got, "-7")
	}
}

func TestBuiltinPrintF64(t *testing.T) {
	var buf bytes.Buffer
	lib := nativelib.Builtin(&buf)
	fn, _ := lib.Lookup("maya_print_f64")
	i := bareInstance(t)
	if err := i.Push(vm.Float64Cell(2.5)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := fn(i); err != nil {
		t.Fatalf("maya_print_f64: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "2.5" {
		t.Fatalf("output = %q, want %q", got, "2.5")
	}
}

func TestBuiltinAllocFreePrintStr(t *testing.T) {
	var buf bytes.Buffer
	lib := nativelib.Builtin(&buf)
	allocFn, _ := lib.Lookup("maya_alloc")
	freeFn, _ := lib.Lookup("maya_free")
	printFn, _ := lib.Lookup("maya_print_str")

	i := bareInstance(t)
	if err := i.Push(vm.Uint64Cell(16)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := allocFn(i); err != nil {
		t.Fatalf("maya_alloc: %v", err)
	}
	ptr, err := i.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if ptr.Ptr() == nil {
		t.Fatal("maya_alloc returned a nil pointer")
	}

	raw := ptr.Ptr()
	msg := []byte("hi\x00")
	dst := (*[3]byte)(unsafe.Pointer(raw))
	copy(dst[:], msg)

	if err := i.Push(ptr); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := printFn(i); err != nil {
		t.Fatalf("maya_print_str: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "hi" {
		t.Fatalf("output = %q, want %q", got, "hi")
	}

	if err := i.Push(ptr); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := freeFn(i); err != nil {
		t.Fatalf("maya_free: %v", err)
	}
}

func TestBuiltinLookupMiss(t *testing.T) {
	lib := nativelib.Builtin(&bytes.Buffer{})
	if _, ok := lib.Lookup("not_a_real_symbol"); ok {
		t.Fatal("Lookup found a symbol that does not exist")
	}
}
