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

// IsEnabled returns whether the core is enabled.
func (c *Cipher) IsEnabled() bool {
	c.check()
	return c.regs.IsSet(hw.REG_CONTROL, hw.CONTROL_ENABLE)
}

// Enable enables the core with all stream encryption off. A receiver starts
// with its XOR engine enabled, a transmitter enables it per stream with
// EnableEncryption.
func (c *Cipher) Enable() error {
	if c.IsEnabled() {
		return ErrAlreadyEnabled
	}

	rx := c.IsRX()

	c.update(func() {
		c.regs.Write(hw.REG_ENCRYPT_ENABLE_H, 0)
		c.regs.Write(hw.REG_ENCRYPT_ENABLE_L, 0)

		c.regs.SetTo(hw.REG_CIPHER_CONTROL, hw.CIPHER_CONTROL_XOR_ENABLE, rx)
		c.regs.Set(hw.REG_CONTROL, hw.CONTROL_ENABLE)
	})

	c.log.Infof("device %d enabled", c.cfg.DeviceID)

	return nil
}

// Disable masks all interrupts, disables the core with all encryption off
// and waits for the XOR engine to stop. Disabling a disabled core is a
// no-op.
//
// The wait is bounded by Config.AckBudget, ErrTimeout is returned if the
// engine is still running once the budget is exhausted.
func (c *Cipher) Disable() (err error) {
	if !c.IsEnabled() {
		return
	}

	c.regs.Write(hw.REG_INTERRUPT_MASK, hw.INTERRUPT_ALL.Value())

	c.update(func() {
		c.regs.Clear(hw.REG_CONTROL, hw.CONTROL_ENABLE)

		c.regs.Write(hw.REG_ENCRYPT_ENABLE_H, 0)
		c.regs.Write(hw.REG_ENCRYPT_ENABLE_L, 0)

		c.regs.Clear(hw.REG_CIPHER_CONTROL, hw.CIPHER_CONTROL_XOR_ENABLE)
	})

	if err = c.waitXor(false); err != nil {
		return fmt.Errorf("disable: %w", err)
	}

	c.log.Infof("device %d disabled", c.cfg.DeviceID)

	return
}

// IsLinkUp returns whether the core reports an established link, a
// disabled core is never up.
func (c *Cipher) IsLinkUp() bool {
	if !c.IsEnabled() {
		return false
	}

	return c.regs.IsSet(hw.REG_STATUS, hw.STATUS_LINK_UP)
}

// NumLanes returns the configured lane count, or 0 when disabled.
func (c *Cipher) NumLanes() int {
	if !c.IsEnabled() {
		return 0
	}

	return int(c.regs.Get(hw.REG_CONTROL, hw.CONTROL_NUM_LANES))
}

// SetNumLanes configures the lane count. HDMI cores only support a single
// lane, DisplayPort cores support 1, 2 or 4 lanes, any other value panics.
func (c *Cipher) SetNumLanes(lanes int) {
	c.check()

	if lanes <= 0 || lanes > hw.MAX_LANES {
		panic(fmt.Sprintf("hdcp1x: invalid lane count %d", lanes))
	}

	if c.IsHDMI() && lanes != 1 {
		panic(fmt.Sprintf("hdcp1x: invalid HDMI lane count %d", lanes))
	}

	if c.IsDP() && lanes == 3 {
		panic("hdcp1x: invalid DisplayPort lane count 3")
	}

	c.update(func() {
		c.regs.SetN(hw.REG_CONTROL, hw.CONTROL_NUM_LANES, uint32(lanes))
	})
}

// SetKeySelect selects one of the device key sets, sel must be lower than
// 8.
func (c *Cipher) SetKeySelect(sel int) {
	c.check()

	if sel < 0 || sel >= hw.KEY_SELECTS {
		panic(fmt.Sprintf("hdcp1x: invalid key select %d", sel))
	}

	c.update(func() {
		c.regs.SetN(hw.REG_KEYMGMT_CONTROL, hw.KEYMGMT_CONTROL_SET_SELECT, uint32(sel))
	})
}

// KeySelect returns the selected device key set.
func (c *Cipher) KeySelect() int {
	c.check()
	return int(c.regs.Get(hw.REG_KEYMGMT_CONTROL, hw.KEYMGMT_CONTROL_SET_SELECT))
}
