// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package reg

import (
	"sync"
)

// Mem is a plain memory backed Bus, registers hold whatever was last
// written and read as zero otherwise.
type Mem struct {
	sync.Mutex

	regs map[uintptr]uint32
}

// NewMem returns an empty memory backed Bus.
func NewMem() *Mem {
	return &Mem{
		regs: make(map[uintptr]uint32),
	}
}

// Read32 implements Bus.
func (m *Mem) Read32(addr uintptr) uint32 {
	m.Lock()
	defer m.Unlock()

	return m.regs[addr]
}

// Write32 implements Bus.
func (m *Mem) Write32(addr uintptr, val uint32) {
	m.Lock()
	defer m.Unlock()

	m.regs[addr] = val
}
