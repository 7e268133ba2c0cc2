package vm

import (
	"testing"
	"unsafe"
)

func TestNewPatchesStringLiteralOperand(t *testing.T) {
	img := &Image{
		Program:    []Instruction{{Opcode: OpPush}, {Opcode: OpHalt}},
		StringLits: []StringLiteral{{Bytes: []byte("hi"), Rip: 0}},
	}
	i, err := New(img)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ptr := i.program[0].Operand.Ptr()
	if ptr == nil {
		t.Fatal("push operand was not patched to a non-nil pointer")
	}
	got := string(unsafe.Slice((*byte)(ptr), 2))
	if got != "hi" {
		t.Fatalf("arena contents = %q, want %q", got, "hi")
	}
}

func TestNewRejectsOutOfRangeStartingRip(t *testing.T) {
	img := &Image{Header: Header{StartingRip: 5}, Program: []Instruction{{Opcode: OpHalt}}}
	if _, err := New(img); err == nil {
		t.Fatal("expected an error for an out-of-range starting rip")
	}
}

func TestCloseRunsBothClosers(t *testing.T) {
	var nativeClosed, imageClosed bool
	img := &Image{Program: []Instruction{{Opcode: OpHalt}}}
	i, err := New(img,
		WithNativeCloser(func() error { nativeClosed = true; return nil }),
		WithImageCloser(func() error { imageClosed = true; return nil }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := i.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !nativeClosed || !imageClosed {
		t.Fatalf("nativeClosed=%v imageClosed=%v, want both true", nativeClosed, imageClosed)
	}
}
