// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package main

// termSize assumes a terminal large enough for the UI.
func termSize(fd int) (cols, rows int, err error) {
	return TUI_MIN_WIDTH, TUI_MIN_HEIGHT, nil
}
