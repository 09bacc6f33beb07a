// Package io provides the peripherals attached to the CHIP-8 core.
// It includes the monochrome display surface (Display), a textual
// frame writer for it (Console), and a program image reader (Rom).
package io

// Surface is the write-only render target of the sprite draw instruction.
type Surface interface {
	// DrawSprite renders one byte per row, most significant bit as the
	// leftmost pixel, with the top-left corner at (x, y).
	DrawSprite(x, y uint8, sprite []byte)
}
