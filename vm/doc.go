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

// Package vm implements the MAYA stack machine: the value cell, the
// instruction record, the on-disk image format, and the interpreter
// that loads an image and runs it to completion or fault.
//
// A Cell is a bit-transparent 64 bit value. Every opcode documents
// which of the four views (Int64, Uint64, Float64, Ptr) it reads or
// writes; the Cell itself never tags its own interpretation.
//
// An Instance is single-use and not safe for concurrent access: the
// dispatch loop in Run is the only thing that may mutate its stack,
// registers or program counter while a run is in progress. Native
// functions invoked via the native opcode run synchronously on the
// same goroutine and may freely read/write the Instance they are
// passed.
package vm
