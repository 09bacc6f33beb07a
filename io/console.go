package io

import (
	"io"

	"github.com/ezrec/chip8/translate"
)

// Console writes the frames of a Display to a text stream.
// A frame is written only when the display changed since the last flush.
type Console struct {
	Output  io.Writer
	Display *Display

	Frames int // Frames written.
}

// Flush writes the current frame, if the display is dirty.
func (cc *Console) Flush() (err error) {
	if cc.Display == nil || !cc.Display.Dirty {
		return
	}

	_, err = translate.Fprintf(cc.Output, "frame %d draws %d\n", cc.Frames, cc.Display.Draws)
	if err != nil {
		return
	}

	_, err = io.WriteString(cc.Output, cc.Display.String())
	if err != nil {
		return
	}

	cc.Display.Dirty = false
	cc.Frames++

	return
}
