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

// Package nativelib resolves the native import list an assembled
// program declares (via extern directives) against an implementation
// of those symbols, producing the []vm.NativeFunc table vm.New needs.
//
// Two sources satisfy an import list: Builtin, a static Go
// implementation of the reference symbol set (maya_alloc, maya_free,
// maya_print_i64, maya_print_f64, maya_print_str), and Open, which
// dlopen/dlsym's an actual shared library at runtime through purego,
// with no cgo involved. Resolve tries the dynamic library first, when
// one was given, and falls back to the builtin implementation for any
// symbol the library doesn't export.
package nativelib
