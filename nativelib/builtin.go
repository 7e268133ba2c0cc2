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

package nativelib

import (
	"fmt"
	"io"
	"sync"
	"unsafe"

	"github.com/sfluorine/maya/vm"
)

// Library resolves a single exported symbol name to a callable native
// function. Resolve consults a chain of Libraries in order.
type Library interface {
	Lookup(symbol string) (vm.NativeFunc, bool)
	Close() error
}

// builtinLibrary implements the reference native import list with
// plain Go, addressed to a heap the library itself owns (Go code
// cannot hand out raw pointers into the guest's memory and expect the
// garbage collector to leave them alone).
type builtinLibrary struct {
	w    io.Writer
	mu   sync.Mutex
	heap map[uintptr][]byte
}

// Builtin returns the reference implementation of maya_alloc,
// maya_free, maya_print_i64, maya_print_f64 and maya_print_str,
// printing to w.
func Builtin(w io.Writer) Library {
	return &builtinLibrary{w: w, heap: make(map[uintptr][]byte)}
}

func (b *builtinLibrary) Lookup(symbol string) (vm.NativeFunc, bool) {
	switch symbol {
	case "maya_alloc":
		return b.alloc, true
	case "maya_free":
		return b.free, true
	case "maya_print_i64":
		return b.printI64, true
	case "maya_print_f64":
		return b.printF64, true
	case "maya_print_str":
		return b.printStr, true
	default:
		return nil, false
	}
}

func (b *builtinLibrary) Close() error { return nil }

func (b *builtinLibrary) alloc(i *vm.Instance) error {
	n, err := i.Pop()
	if err != nil {
		return err
	}
	size := n.Uint64()
	buf := make([]byte, size)
	var ptr unsafe.Pointer
	if size > 0 {
		ptr = unsafe.Pointer(&buf[0])
	}
	b.mu.Lock()
	b.heap[uintptr(ptr)] = buf
	b.mu.Unlock()
	return i.Push(vm.PtrCell(ptr))
}

func (b *builtinLibrary) free(i *vm.Instance) error {
	p, err := i.Pop()
	if err != nil {
		return err
	}
	b.mu.Lock()
	delete(b.heap, uintptr(p.Ptr()))
	b.mu.Unlock()
	return nil
}

func (b *builtinLibrary) printI64(i *vm.Instance) error {
	v, err := i.Pop()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(b.w, v.Int64())
	return err
}

func (b *builtinLibrary) printF64(i *vm.Instance) error {
	v, err := i.Pop()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(b.w, v.Float64())
	return err
}

func (b *builtinLibrary) printStr(i *vm.Instance) error {
	v, err := i.Pop()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(b.w, readCString(v.Ptr()))
	return err
}

// readCString reads bytes starting at p until a NUL terminator. p
// must address either the VM's string arena or a block this package
// allocated.
func readCString(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}
	var buf []byte
	for n := 0; ; n++ {
		b := *(*byte)(unsafe.Add(p, n))
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf)
}
