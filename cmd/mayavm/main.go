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

package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/sfluorine/maya/asm"
	"github.com/sfluorine/maya/link"
	"github.com/sfluorine/maya/nativelib"
	"github.com/sfluorine/maya/vm"
)

var debug bool

// fileList accumulates repeated -e flags, one input per occurrence.
type fileList []string

func (f *fileList) String() string     { return "" }
func (f *fileList) Set(s string) error { *f = append(*f, s); return nil }

func atExit(err error) {
	if err == nil {
		return
	}
	if !debug {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%+v\n", err)
	os.Exit(1)
}

func main() {
	var err error
	defer func() { atExit(err) }()

	assemble := flag.String("a", "", "assemble and link `input`.masm into an image")
	var toExec fileList
	flag.Var(&toExec, "e", "load and execute `input` (may be repeated)")
	disasm := flag.String("d", "", "disassemble `input`")
	out := flag.String("o", "", "override the output `path` for -a")
	lib := flag.String("lib", "", "path to a native shared library to resolve extern symbols against")
	flag.BoolVar(&debug, "debug", false, "print full error context on fault")
	flag.Parse()

	switch {
	case *assemble != "":
		err = doAssemble(*assemble, *out)
	case len(toExec) > 0:
		for _, input := range toExec {
			if err = doExec(input, *lib); err != nil {
				return
			}
		}
	case *disasm != "":
		err = doDisassemble(*disasm)
	default:
		flag.Usage()
	}
}

func defaultOutput(input string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + ".maya"
}

func doAssemble(input, out string) error {
	f, err := os.Open(input)
	if err != nil {
		return errors.Wrap(err, "opening source")
	}
	defer f.Close()

	prog, err := asm.Assemble(input, f)
	if err != nil {
		return err
	}

	if out == "" {
		out = defaultOutput(input)
	}
	if err := prog.Save(out); err != nil {
		return err
	}
	return link.Link(out)
}

func doDisassemble(input string) error {
	img, err := vm.Load(input)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	return asm.Disassemble(img, w)
}

func doExec(input, libPath string) error {
	img, unmap, err := vm.LoadMapped(input)
	if err != nil {
		return err
	}

	tabs, err := asm.LoadSideTables(input + asm.SideTableSuffix)
	var natives []vm.NativeFunc
	var closeLibs func() error
	if err == nil && len(tabs.Natives) > 0 {
		libs := []nativelib.Library{}
		if libPath != "" {
			dyn, derr := nativelib.Open(libPath)
			if derr != nil {
				unmap()
				return derr
			}
			libs = append(libs, dyn)
		}
		builtin := nativelib.Builtin(nativelib.NewErrWriter(os.Stdout))
		libs = append(libs, builtin)

		natives, err = nativelib.Resolve(tabs.Natives, libs...)
		if err != nil {
			nativelib.CloseAll(libs...)
			unmap()
			return err
		}
		closeLibs = func() error { return nativelib.CloseAll(libs...) }
	}

	opts := []vm.Option{vm.WithImageCloser(unmap)}
	if natives != nil {
		opts = append(opts, vm.WithNatives(natives))
	}
	if closeLibs != nil {
		opts = append(opts, vm.WithNativeCloser(closeLibs))
	}

	i, err := vm.New(img, opts...)
	if err != nil {
		if closeLibs != nil {
			closeLibs()
		}
		unmap()
		return err
	}
	defer i.Close()

	return i.Run()
}
