// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

//go:build linux || darwin || freebsd || netbsd || openbsd

package main

import (
	"golang.org/x/sys/unix"
)

// termSize returns the size, in cells, of the terminal on fd.
func termSize(fd int) (cols, rows int, err error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return
	}

	cols = int(ws.Col)
	rows = int(ws.Row)
	return
}
