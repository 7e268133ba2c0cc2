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
	"github.com/pkg/errors"

	"github.com/sfluorine/maya/asm"
	"github.com/sfluorine/maya/vm"
)

// Resolve binds every entry of imports, in order, against libs (tried
// first to last), producing the table vm.WithNatives expects. An
// import satisfied by no library fails with vm.ErrNativeNotFound.
func Resolve(imports []asm.NativeImport, libs ...Library) ([]vm.NativeFunc, error) {
	fns := make([]vm.NativeFunc, len(imports))
	for idx, imp := range imports {
		var (
			fn    vm.NativeFunc
			found bool
		)
		for _, lib := range libs {
			if f, ok := lib.Lookup(imp.Symbol); ok {
				fn, found = f, true
				break
			}
		}
		if !found {
			return nil, errors.Wrapf(vm.ErrNativeNotFound, "%s (%s)", imp.Name, imp.Symbol)
		}
		fns[idx] = fn
	}
	return fns, nil
}

// CloseAll closes every library in libs, returning the first error
// encountered while still attempting to close the rest.
func CloseAll(libs ...Library) error {
	var firstErr error
	for _, lib := range libs {
		if err := lib.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
