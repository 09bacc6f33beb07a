package io

import (
	"io"
	"io/fs"
)

const ROM_LIMIT = 0x1000 - 0x200 // Largest image that fits above the origin.

// Rom is a program image, read from storage.
type Rom struct {
	Limit int // Maximum size of the image. ROM_LIMIT if zero.
	Data  []byte
}

func (rc *Rom) limit() int {
	if rc.Limit <= 0 {
		return ROM_LIMIT
	}
	return rc.Limit
}

// ReadFrom replaces the image with the contents of r.
// The image is read up to one byte past its limit, so that an oversized
// image is rejected rather than silently truncated.
func (rc *Rom) ReadFrom(r io.Reader) (n int64, err error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(rc.limit())+1))
	n = int64(len(data))
	if err != nil {
		return
	}

	if len(data) > rc.limit() {
		err = ErrRomTooLarge
		return
	}

	rc.Data = data
	return
}

// Open replaces the image with the named file of fsys.
func (rc *Rom) Open(fsys fs.FS, name string) (err error) {
	inf, err := fsys.Open(name)
	if err != nil {
		return
	}
	defer inf.Close()

	_, err = rc.ReadFrom(inf)
	return
}
