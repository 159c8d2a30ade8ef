// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !linux

package reg

import (
	"errors"
)

// DevMem is only available on linux.
type DevMem struct{}

// OpenDevMem always fails on this platform.
func OpenDevMem(base uintptr, size int) (*DevMem, error) {
	return nil, errors.New("reg: /dev/mem access not supported on this platform")
}

// Read32 implements Bus.
func (m *DevMem) Read32(addr uintptr) uint32 {
	panic("reg: /dev/mem access not supported on this platform")
}

// Write32 implements Bus.
func (m *DevMem) Write32(addr uintptr, val uint32) {
	panic("reg: /dev/mem access not supported on this platform")
}

// Close implements io.Closer.
func (m *DevMem) Close() error {
	return nil
}
