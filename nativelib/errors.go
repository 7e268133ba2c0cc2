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

import "github.com/sfluorine/maya/vm"

// faultCode is the fault encoding a dynamically loaded native symbol
// returns across the cgo-free call boundary: 0 means success, any
// other value names one of the VM's fault sentinels.
type faultCode int32

const (
	faultOK faultCode = iota
	faultStackOverflow
	faultStackUnderflow
	faultInvalidOperand
	faultDivByZero
)

func (c faultCode) toError() error {
	switch c {
	case faultOK:
		return nil
	case faultStackOverflow:
		return vm.ErrStackOverflow
	case faultStackUnderflow:
		return vm.ErrStackUnderflow
	case faultDivByZero:
		return vm.ErrDivByZero
	default:
		return vm.ErrInvalidOperand
	}
}
