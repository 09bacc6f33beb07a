package io

import (
	"fmt"
	"iter"
	"maps"
	"strings"
)

const (
	DISPLAY_WIDTH  = 64 // Pixels per row.
	DISPLAY_HEIGHT = 32 // Rows.

	PIXEL_ON  = '#'
	PIXEL_OFF = '_'
)

var _display_defines = map[string]string{
	"DISPLAY_WIDTH":  fmt.Sprintf("%v", DISPLAY_WIDTH),
	"DISPLAY_HEIGHT": fmt.Sprintf("%v", DISPLAY_HEIGHT),
}

// Display is a monochrome bitmap surface.
//
// Sprite origins wrap around the surface edges; sprite pixels that would
// extend past the right or bottom edge are clipped.
type Display struct {
	Pixel [DISPLAY_HEIGHT][DISPLAY_WIDTH]bool

	Draws int  // Number of sprites drawn since reset.
	Dirty bool // Set by a draw, cleared by the reader.
}

var _ Surface = (*Display)(nil)

// Defines returns an iter of defines for the display.
func (dc *Display) Defines() iter.Seq2[string, string] {
	return maps.All(_display_defines)
}

// Reset turns all pixels off.
func (dc *Display) Reset() {
	for row := range dc.Pixel {
		clear(dc.Pixel[row][:])
	}
	dc.Draws = 0
	dc.Dirty = false
}

// DrawSprite overwrites the cells under the sprite with its bits.
func (dc *Display) DrawSprite(x, y uint8, sprite []byte) {
	left := int(x) % DISPLAY_WIDTH
	top := int(y) % DISPLAY_HEIGHT

	for n, bits := range sprite {
		row := top + n
		if row >= DISPLAY_HEIGHT {
			break
		}
		for col := range 8 {
			px := left + col
			if px >= DISPLAY_WIDTH {
				break
			}
			dc.Pixel[row][px] = (bits & (0x80 >> col)) != 0
		}
	}

	dc.Draws++
	dc.Dirty = true
}

// Get returns the pixel at (x, y). Coordinates wrap.
func (dc *Display) Get(x, y int) bool {
	x = ((x % DISPLAY_WIDTH) + DISPLAY_WIDTH) % DISPLAY_WIDTH
	y = ((y % DISPLAY_HEIGHT) + DISPLAY_HEIGHT) % DISPLAY_HEIGHT
	return dc.Pixel[y][x]
}

// Rows returns an iterator over the rendered rows of the display.
func (dc *Display) Rows() iter.Seq2[int, string] {
	return func(yield func(row int, text string) bool) {
		line := make([]byte, DISPLAY_WIDTH)
		for row := range DISPLAY_HEIGHT {
			for col, on := range dc.Pixel[row] {
				if on {
					line[col] = PIXEL_ON
				} else {
					line[col] = PIXEL_OFF
				}
			}
			if !yield(row, string(line)) {
				return
			}
		}
	}
}

// String renders the display as text, one line per row.
func (dc *Display) String() string {
	var sb strings.Builder
	for _, line := range dc.Rows() {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
