// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jroimartin/gocui"

	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	ErrTerminalTooSmall = errors.New(f("terminal too small"))
)

const (
	TUI_REGISTER_WIDTH = 34 // Width of the register view.
	TUI_STATUS_HEIGHT  = 3  // Height of the status view.

	TUI_MIN_WIDTH  = io.DISPLAY_WIDTH + 2 + TUI_REGISTER_WIDTH
	TUI_MIN_HEIGHT = io.DISPLAY_HEIGHT + 2 + TUI_STATUS_HEIGHT

	TUI_REFRESH = time.Second / 30 // Fastest display refresh.
)

// tuiFrames holds the most recent rendering of the emulator, for the UI
// goroutine to pick up. gocui does not order Update calls.
type tuiFrames struct {
	sync.Mutex
	display   string
	registers string
	status    []string
}

// post records a rendering, and schedules it for display.
func (tf *tuiFrames) post(g *gocui.Gui, emu *emulator.Emulator, status string) {
	emu.Display.Dirty = false

	tf.Lock()
	tf.display = emu.Display.String()
	tf.registers = emu.Cpu.String()
	if len(status) != 0 {
		tf.status = append(tf.status, status)
	}
	tf.Unlock()

	g.Update(tf.show)
}

// show renders the latest frame into the views. Runs on the UI goroutine.
func (tf *tuiFrames) show(g *gocui.Gui) error {
	tf.Lock()
	views := map[string]string{
		"display":   tf.display,
		"registers": tf.registers,
	}
	status := tf.status
	tf.status = nil
	tf.Unlock()

	for name, text := range views {
		v, err := g.View(name)
		if err != nil {
			return err
		}
		v.Clear()
		fmt.Fprint(v, text)
	}

	v, err := g.View("status")
	if err != nil {
		return err
	}
	for _, line := range status {
		fmt.Fprintln(v, line)
	}

	return nil
}

// tuiLayout lays out the display, register, and status views.
func tuiLayout(g *gocui.Gui) error {
	maxX, maxY := g.Size()

	// left -> display
	if v, err := g.SetView("display", 0, 0, io.DISPLAY_WIDTH+1, io.DISPLAY_HEIGHT+1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Display"
	}

	// right -> registers
	if v, err := g.SetView("registers", io.DISPLAY_WIDTH+2, 0, maxX-1, io.DISPLAY_HEIGHT+1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Registers"
	}

	// down -> status
	if v, err := g.SetView("status", 0, io.DISPLAY_HEIGHT+2, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Status"
		v.Autoscroll = true
	}

	return nil
}

func tuiQuit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}

// tuiRun steps the emulator, posting frames to the UI when the display
// changes, until done is closed or the emulator stops.
func tuiRun(g *gocui.Gui, emu *emulator.Emulator, limit int, done <-chan struct{}) {
	frames := &tuiFrames{}

	frames.post(g, emu, f("running"))
	last := time.Now()

	for n := 0; limit == 0 || n < limit; n++ {
		select {
		case <-done:
			return
		default:
		}

		halted, err := emu.Run(1)
		switch {
		case err != nil:
			frames.post(g, emu, err.Error())
			return
		case halted:
			frames.post(g, emu, f("halted after %d cycles", emu.Cpu.Ticks))
			return
		case emu.Display.Dirty && time.Since(last) >= TUI_REFRESH:
			frames.post(g, emu, "")
			last = time.Now()
		}
	}

	frames.post(g, emu, f("stopped after %d cycles", emu.Cpu.Ticks))
}

// runTui runs the emulator in a terminal UI, until Ctrl-C.
func runTui(emu *emulator.Emulator, limit int) (err error) {
	cols, rows, err := termSize(int(os.Stdout.Fd()))
	if err != nil {
		return
	}
	if cols < TUI_MIN_WIDTH || rows < TUI_MIN_HEIGHT {
		err = errors.Join(ErrTerminalTooSmall,
			errors.New(f("%dx%d, need %dx%d", cols, rows, TUI_MIN_WIDTH, TUI_MIN_HEIGHT)))
		return
	}

	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return
	}
	defer g.Close()

	g.SetManagerFunc(tuiLayout)

	err = g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, tuiQuit)
	if err != nil {
		return
	}

	done := make(chan struct{})
	defer close(done)

	go tuiRun(g, emu, limit, done)

	err = g.MainLoop()
	if err == gocui.ErrQuit {
		err = nil
	}

	return
}
