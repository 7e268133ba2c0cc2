package vm

// Instruction is a tagged pair of an opcode and its operand cell. The
// operand is always present, zero-initialized when unused, so the
// on-disk and in-memory representations have a fixed 16 byte stride
// suitable for O(1) indexing and raw binary I/O: a 4 byte opcode tag,
// 4 bytes of padding to keep the operand 8-byte aligned, then the
// operand itself.
type Instruction struct {
	Opcode  Opcode
	_       [4]byte
	Operand Cell
}
