package memory

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	ErrOutOfBounds = errors.New(f("address out of bounds"))
)

// ErrAddress is the offending address of a memory access.
type ErrAddress int

func (ea ErrAddress) Error() string {
	return f("address 0x%03x", int(ea))
}
