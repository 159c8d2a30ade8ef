// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cipher

import (
	"fmt"

	"github.com/usbarmory/hdcp1x-cipher/internal/hw"
)

// Interrupt represents a cipher core interrupt source.
type Interrupt int

const (
	// LinkFail signals loss of the link integrity check (DisplayPort).
	LinkFail Interrupt = iota
	// RiUpdate signals a new Ri value.
	RiUpdate
)

func (i Interrupt) String() string {
	switch i {
	case LinkFail:
		return "link-fail"
	case RiUpdate:
		return "ri-update"
	default:
		return fmt.Sprintf("Interrupt(%d)", int(i))
	}
}

// SetCallback registers the function invoked by HandleInterrupt for an
// interrupt source, a nil fn removes it.
func (c *Cipher) SetCallback(i Interrupt, fn func()) {
	c.check()

	switch i {
	case LinkFail:
		c.linkFail = fn
	case RiUpdate:
		c.riUpdate = fn
	default:
		panic(fmt.Sprintf("hdcp1x: invalid interrupt %d", i))
	}
}

// SetLinkStateCheck unmasks (on) or masks the link failure interrupt, only
// DisplayPort cores have link state checking.
func (c *Cipher) SetLinkStateCheck(on bool) error {
	c.check()

	if !c.IsDP() {
		return ErrNoFeature
	}

	c.regs.SetTo(hw.REG_INTERRUPT_MASK, hw.INTERRUPT_LINK_FAIL, !on)

	return nil
}

// SetRiUpdate unmasks (on) or masks the Ri update interrupt.
func (c *Cipher) SetRiUpdate(on bool) {
	c.check()
	c.regs.SetTo(hw.REG_INTERRUPT_MASK, hw.INTERRUPT_RI_UPDATE, !on)
}

// HandleInterrupt acknowledges pending unmasked interrupts and invokes their
// callbacks, it is meant to be called from the platform interrupt dispatch.
func (c *Cipher) HandleInterrupt() {
	c.check()

	pending := c.regs.Read(hw.REG_INTERRUPT_STATUS) &^ c.regs.Read(hw.REG_INTERRUPT_MASK)

	if pending == 0 {
		return
	}

	// write one to clear
	c.regs.Write(hw.REG_INTERRUPT_STATUS, pending)

	if hw.INTERRUPT_LINK_FAIL.IsSet(pending) {
		c.log.Debugf("device %d link failure", c.cfg.DeviceID)

		if c.linkFail != nil {
			c.linkFail()
		}
	}

	if hw.INTERRUPT_RI_UPDATE.IsSet(pending) && c.riUpdate != nil {
		c.riUpdate()
	}
}
