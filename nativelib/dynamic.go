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
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/pkg/errors"

	"github.com/sfluorine/maya/vm"
)

// cSymbol is the calling convention a dynamically loaded native
// symbol must satisfy: a pointer to the data stack's backing array
// and a pointer to the live stack depth, both of which the symbol
// reads and writes directly, returning a faultCode.
type cSymbol func(stack *[vm.StackSize]uint64, sp *uint64) int32

// dynLibrary resolves symbols against a shared library opened with
// dlopen, with no cgo involved.
type dynLibrary struct {
	handle uintptr
	cache  map[string]vm.NativeFunc
}

// Open dlopen's the shared library at path. The returned Library's
// Close releases the handle.
func Open(path string) (Library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, errors.Wrapf(err, "dlopen %s", path)
	}
	return &dynLibrary{handle: handle, cache: make(map[string]vm.NativeFunc)}, nil
}

func (d *dynLibrary) Lookup(symbol string) (vm.NativeFunc, bool) {
	if fn, ok := d.cache[symbol]; ok {
		return fn, true
	}
	addr, err := purego.Dlsym(d.handle, symbol)
	if err != nil {
		return nil, false
	}
	var raw cSymbol
	purego.RegisterFunc(&raw, addr)
	fn := func(i *vm.Instance) error {
		stack, sp := i.RawStack()
		code := raw((*[vm.StackSize]uint64)(unsafe.Pointer(stack)), sp)
		return faultCode(code).toError()
	}
	d.cache[symbol] = fn
	return fn, true
}

func (d *dynLibrary) Close() error {
	return purego.Dlclose(d.handle)
}
