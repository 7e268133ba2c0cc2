package vm

import "errors"

// Fault kinds the interpreter can raise. Every fault is fatal to the
// current run: there is no trap handler and no resumption. Callers
// distinguish a specific fault with errors.Is against these sentinels;
// Run wraps them with positional context (rip, sp) before returning.
var (
	ErrStackOverflow      = errors.New("STACK_OVERFLOW")
	ErrStackUnderflow     = errors.New("STACK_UNDERFLOW")
	ErrInvalidOperand     = errors.New("INVALID_OPERAND")
	ErrInvalidInstruction = errors.New("INVALID_INSTRUCTION")
	ErrDivByZero          = errors.New("DIV_BY_ZERO")

	ErrBadMagic       = errors.New("IMAGE_BAD_MAGIC")
	ErrTruncated      = errors.New("IMAGE_TRUNCATED")
	ErrNativeNotFound = errors.New("NATIVE_NOT_FOUND")
)
