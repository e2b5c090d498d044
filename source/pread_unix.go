// Copyright (c) Elliot Nunn
// Licensed under the MIT license

//go:build linux || darwin

package source

import (
	"os"

	"golang.org/x/sys/unix"
)

// preadAt issues a direct pread(2), which is what lets many independent
// Source trees share one *os.File without serializing on its seek offset.
func preadAt(f *os.File, p []byte, off int64) (int, error) {
	raw, err := f.SyscallConn()
	if err != nil {
		return f.ReadAt(p, off)
	}

	var n int
	var innerErr error
	ctrlErr := raw.Read(func(fd uintptr) bool {
		n, innerErr = unix.Pread(int(fd), p, off)
		return innerErr != unix.EAGAIN
	})
	if ctrlErr != nil {
		return f.ReadAt(p, off)
	}
	if innerErr != nil {
		return n, innerErr
	}
	return n, nil
}
