// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sim

import (
	"github.com/usbarmory/hdcp1x-cipher/internal/hw"
)

// Reg returns a register value without side effects and without recording
// the access.
func (c *Core) Reg(off uint32) uint32 {
	c.Lock()
	defer c.Unlock()

	return c.get(off)
}

// Poke sets a register value, bypassing write semantics.
func (c *Core) Poke(off uint32, val uint32) {
	c.Lock()
	defer c.Unlock()

	c.put(off, val)
}

// Snapshot returns a copy of all registers.
func (c *Core) Snapshot() []uint32 {
	c.Lock()
	defer c.Unlock()

	return append([]uint32(nil), c.regs[:]...)
}

// Accesses returns the recorded register accesses.
func (c *Core) Accesses() []Access {
	c.Lock()
	defer c.Unlock()

	return append([]Access(nil), c.log...)
}

// Writes returns the recorded register writes.
func (c *Core) Writes() (writes []Access) {
	c.Lock()
	defer c.Unlock()

	for _, a := range c.log {
		if a.Write {
			writes = append(writes, a)
		}
	}

	return
}

// ClearLog discards the recorded register accesses.
func (c *Core) ClearLog() {
	c.Lock()
	defer c.Unlock()

	c.log = nil
}

// Raise asserts interrupt status bits.
func (c *Core) Raise(bits uint32) {
	c.Lock()
	defer c.Unlock()

	c.raise(bits)
}

// SetLinkUp sets the link status reported by the core.
func (c *Core) SetLinkUp(up bool) {
	c.Lock()
	defer c.Unlock()

	c.setBits(hw.REG_STATUS, hw.STATUS_LINK_UP.Value(), up)
}

// XorRunning returns whether the XOR engine reports activity.
func (c *Core) XorRunning() bool {
	c.Lock()
	defer c.Unlock()

	return c.isSet(hw.REG_CIPHER_STATUS, hw.CIPHER_STATUS_XOR_IN_PROGRESS.Value())
}

// Km returns the last Km placeholder value.
func (c *Core) Km() uint64 {
	c.Lock()
	defer c.Unlock()

	return uint64(c.get(hw.REG_KM_H))<<32 | uint64(c.get(hw.REG_KM_L))
}
