package vm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func sampleImage() *Image {
	return &Image{
		Header:  Header{StartingRip: 1},
		Program: []Instruction{{Opcode: OpHalt}, {Opcode: OpPush, Operand: Int64Cell(42)}, {Opcode: OpHalt}},
		StringLits: []StringLiteral{
			{Bytes: []byte("hi"), Rip: 1},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.maya")
	want := sampleImage()
	if err := want.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Header.StartingRip != want.Header.StartingRip {
		t.Errorf("StartingRip = %d, want %d", got.Header.StartingRip, want.Header.StartingRip)
	}
	if len(got.Program) != len(want.Program) {
		t.Fatalf("Program length = %d, want %d", len(got.Program), len(want.Program))
	}
	for idx := range want.Program {
		if got.Program[idx] != want.Program[idx] {
			t.Errorf("Program[%d] = %+v, want %+v", idx, got.Program[idx], want.Program[idx])
		}
	}
	if len(got.StringLits) != 1 || string(got.StringLits[0].Bytes) != "hi" || got.StringLits[0].Rip != 1 {
		t.Errorf("StringLits = %+v, want [{hi 1}]", got.StringLits)
	}
}

func TestMmapLoadMatchesCopyLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.maya")
	if err := sampleImage().Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	copied, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	mapped, unmap, err := LoadMapped(path)
	if err != nil {
		t.Fatalf("LoadMapped: %v", err)
	}
	defer unmap()

	if mapped.Header != copied.Header {
		t.Errorf("mapped header = %+v, want %+v", mapped.Header, copied.Header)
	}
	if len(mapped.Program) != len(copied.Program) {
		t.Fatalf("mapped program length = %d, want %d", len(mapped.Program), len(copied.Program))
	}
	for idx := range copied.Program {
		if mapped.Program[idx] != copied.Program[idx] {
			t.Errorf("mapped.Program[%d] = %+v, want %+v", idx, mapped.Program[idx], copied.Program[idx])
		}
	}
}

func TestLoadBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.maya")
	header := make([]byte, 24) // full Header width, wrong magic
	copy(header, "NOPE")
	if err := os.WriteFile(path, header, 0666); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, ErrBadMagic) {
		t.Fatalf("Load err = %v, want IMAGE_BAD_MAGIC", err)
	}
}

func TestLoadTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.maya")
	if err := os.WriteFile(path, []byte("MAYA"), 0666); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("Load err = %v, want IMAGE_TRUNCATED", err)
	}
}
