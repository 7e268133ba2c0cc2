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

package vm

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// magic is the 4 byte image signature, "MAYA".
var magic = [4]byte{'M', 'A', 'Y', 'A'}

// Header is the fixed-size prefix of a .maya image file.
type Header struct {
	Magic       [4]byte
	_           [4]byte // padding to 8-byte alignment
	StartingRip uint64
	ProgramSize uint64
}

// StringLiteral records a NUL-terminated string appended after the
// instruction vector, and the rip of the push instruction whose
// operand must be patched to point at it once the string is placed in
// the VM's string arena.
type StringLiteral struct {
	Bytes []byte
	Rip   uint64
}

// Image is the in-memory form of a program: header, instruction
// vector and string-literal appendix.
type Image struct {
	Header     Header
	Program    []Instruction
	StringLits []StringLiteral
}

// Load reads a .maya image from path, copying the instruction vector
// into memory. It is the inverse of Save.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	defer f.Close()
	return decodeImage(bufio.NewReader(f))
}

// LoadMapped memory-maps path read-only and decodes the header and
// instruction vector directly from the mapping, the loader's
// "memory-maps ... the instruction vector" alternative. The returned
// func must be called to release the mapping once the image is no
// longer needed. LoadMapped returns a plain error, with no silent
// fallback to Load, if the platform cannot map the file.
func LoadMapped(path string) (img *Image, unmap func() error, err error) {
	f, ferr := os.Open(path)
	if ferr != nil {
		return nil, nil, errors.Wrap(ferr, "open image")
	}
	defer f.Close()

	st, serr := f.Stat()
	if serr != nil {
		return nil, nil, errors.Wrap(serr, "stat image")
	}
	if st.Size() == 0 {
		return nil, nil, errors.Wrap(ErrTruncated, "empty image file")
	}

	m, merr := mmap.Map(f, mmap.RDONLY, 0)
	if merr != nil {
		return nil, nil, errors.Wrap(merr, "mmap image")
	}
	img, err = decodeImage(bytes.NewReader(m))
	if err != nil {
		m.Unmap()
		return nil, nil, err
	}
	return img, m.Unmap, nil
}

func decodeImage(r io.Reader) (*Image, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, errors.Wrap(wrapEOF(err), "reading header")
	}
	if h.Magic != magic {
		return nil, errors.Wrapf(ErrBadMagic, "got %q", h.Magic)
	}

	program := make([]Instruction, h.ProgramSize)
	if h.ProgramSize > 0 {
		if err := binary.Read(r, binary.LittleEndian, program); err != nil {
			return nil, errors.Wrap(wrapEOF(err), "reading instructions")
		}
	}

	lits, err := decodeStringLiterals(r)
	if err != nil {
		return nil, err
	}

	return &Image{Header: h, Program: program, StringLits: lits}, nil
}

func wrapEOF(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncated
	}
	return err
}

func decodeStringLiterals(r io.Reader) ([]StringLiteral, error) {
	br := bufio.NewReader(r)
	var lits []StringLiteral
	for {
		var buf []byte
		for {
			b, err := br.ReadByte()
			if err == io.EOF {
				if len(buf) == 0 {
					return lits, nil
				}
				return nil, errors.Wrap(ErrTruncated, "reading string literal")
			}
			if err != nil {
				return nil, errors.Wrap(err, "reading string literal")
			}
			if b == 0 {
				break
			}
			buf = append(buf, b)
		}
		var rip uint64
		if err := binary.Read(br, binary.LittleEndian, &rip); err != nil {
			return nil, errors.Wrap(ErrTruncated, "reading string literal rip")
		}
		lits = append(lits, StringLiteral{Bytes: buf, Rip: rip})
	}
}

// Save writes img to path in the canonical on-disk format.
func (img *Image) Save(path string) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return errors.Wrap(err, "create image")
	}
	w := bufio.NewWriter(f)
	defer func() {
		if ferr := w.Flush(); err == nil {
			err = ferr
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	img.Header.Magic = magic
	img.Header.ProgramSize = uint64(len(img.Program))
	if err = binary.Write(w, binary.LittleEndian, img.Header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	if err = binary.Write(w, binary.LittleEndian, img.Program); err != nil {
		return errors.Wrap(err, "writing instructions")
	}
	for _, lit := range img.StringLits {
		if _, err = w.Write(lit.Bytes); err != nil {
			return errors.Wrap(err, "writing string literal")
		}
		if err = w.WriteByte(0); err != nil {
			return errors.Wrap(err, "writing string literal terminator")
		}
		if err = binary.Write(w, binary.LittleEndian, lit.Rip); err != nil {
			return errors.Wrap(err, "writing string literal rip")
		}
	}
	return nil
}
