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

package asm_test

import (
	"fmt"
	"os"
	"strings"

	"github.com/sfluorine/maya/asm"
)

func ExampleAssemble() {
	prog, err := asm.Assemble("add.asm", strings.NewReader(`
push 2
push 3
iadd
halt
`))
	if err != nil {
		fmt.Println(err)
		return
	}
	if err := asm.Disassemble(prog.Image(), os.Stdout); err != nil {
		fmt.Println(err)
	}
	// Output:
	//      0: push 2
	//      1: push 3
	//      2: iadd
	//      3: halt
}

func Example_stringLiteral() {
	prog, err := asm.Assemble("greet.asm", strings.NewReader(`
push "hello"
halt
`))
	if err != nil {
		fmt.Println(err)
		return
	}
	if err := asm.Disassemble(prog.Image(), os.Stdout); err != nil {
		fmt.Println(err)
	}
	// Output:
	//      0: push "hello"
	//      1: halt
}

// Shows a label's table entry holding the rip of the instruction
// immediately following its definition.
func Example_labels() {
	prog, err := asm.Assemble("loop.asm", strings.NewReader(`
entry main
main:
  push 0
loop:
  push 1
  iadd
  dup 1
  push 5
  ijlt loop
  halt
`))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("entry:", prog.StartRip)
	fmt.Println("loop:", prog.Labels["loop"])
	// Output:
	// entry: 0
	// loop: 1
}
