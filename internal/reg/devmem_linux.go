// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package reg

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DevMemPath is the physical memory device mapped by OpenDevMem.
var DevMemPath = "/dev/mem"

// DevMem is a Bus backed by a shared mapping of a physical register window,
// accesses outside the window panic.
type DevMem struct {
	base uintptr
	mem  []byte
}

// OpenDevMem maps size bytes of physical memory starting at base, base must
// be page aligned.
func OpenDevMem(base uintptr, size int) (m *DevMem, err error) {
	if base%uintptr(os.Getpagesize()) != 0 {
		return nil, fmt.Errorf("reg: base %#x is not page aligned", base)
	}

	fd, err := unix.Open(DevMemPath, unix.O_RDWR|unix.O_SYNC, 0)

	if err != nil {
		return nil, fmt.Errorf("reg: could not open %s: %w", DevMemPath, err)
	}

	defer unix.Close(fd)

	mem, err := unix.Mmap(fd, int64(base), size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)

	if err != nil {
		return nil, fmt.Errorf("reg: could not map %#x: %w", base, err)
	}

	m = &DevMem{
		base: base,
		mem:  mem,
	}

	return
}

func (m *DevMem) ptr(addr uintptr) *uint32 {
	if addr < m.base || addr-m.base+4 > uintptr(len(m.mem)) || addr%4 != 0 {
		panic(fmt.Sprintf("reg: invalid access at %#x", addr))
	}

	return (*uint32)(unsafe.Pointer(&m.mem[addr-m.base]))
}

// Read32 implements Bus.
func (m *DevMem) Read32(addr uintptr) uint32 {
	return atomic.LoadUint32(m.ptr(addr))
}

// Write32 implements Bus.
func (m *DevMem) Write32(addr uintptr, val uint32) {
	atomic.StoreUint32(m.ptr(addr), val)
}

// Close releases the register window mapping.
func (m *DevMem) Close() error {
	return unix.Munmap(m.mem)
}
