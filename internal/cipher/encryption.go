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

// Encryption returns the map of streams with encryption enabled, bit n
// representing stream n, or 0 when disabled.
//
// A receiver XOR engine is not gated per stream: when no stream bit is set
// and the engine is running stream 0 is reported active.
func (c *Cipher) Encryption() (streams uint64) {
	if !c.IsEnabled() {
		return
	}

	streams = uint64(c.regs.Read(hw.REG_ENCRYPT_ENABLE_H)) << 32
	streams |= uint64(c.regs.Read(hw.REG_ENCRYPT_ENABLE_L))

	if streams == 0 && c.xorInProgress() {
		streams = 0x01
	}

	return
}

func (c *Cipher) checkStreamControl() error {
	if !c.IsEnabled() {
		return ErrNotEnabled
	}

	if c.IsRX() {
		return ErrInvalidForRole
	}

	return nil
}

// EnableEncryption enables encryption on the streams set in the argument
// map and waits for the XOR engine to run. Only transmitters have per stream
// control.
func (c *Cipher) EnableEncryption(streams uint64) (err error) {
	if err = c.checkStreamControl(); err != nil {
		return
	}

	if streams == 0 {
		return
	}

	c.update(func() {
		l := c.regs.Read(hw.REG_ENCRYPT_ENABLE_L) | uint32(streams)
		c.regs.Write(hw.REG_ENCRYPT_ENABLE_L, l)

		h := c.regs.Read(hw.REG_ENCRYPT_ENABLE_H) | uint32(streams>>32)
		c.regs.Write(hw.REG_ENCRYPT_ENABLE_H, h)

		c.regs.Set(hw.REG_CIPHER_CONTROL, hw.CIPHER_CONTROL_XOR_ENABLE)
	})

	c.log.Debugf("device %d encryption enabled on %#016x", c.cfg.DeviceID, streams)

	if err = c.waitXor(true); err != nil {
		return fmt.Errorf("enable encryption: %w", err)
	}

	return
}

// DisableEncryption disables encryption on the streams set in the argument
// map. The XOR engine is stopped, and its stop awaited, once no stream is
// left encrypted, on HDMI links it is stopped on any request as they have a
// single XOR path.
func (c *Cipher) DisableEncryption(streams uint64) (err error) {
	if err = c.checkStreamControl(); err != nil {
		return
	}

	if streams == 0 {
		return
	}

	stopXor := true
	hdmi := c.IsHDMI()

	c.update(func() {
		l := c.regs.Read(hw.REG_ENCRYPT_ENABLE_L) &^ uint32(streams)
		c.regs.Write(hw.REG_ENCRYPT_ENABLE_L, l)

		h := c.regs.Read(hw.REG_ENCRYPT_ENABLE_H) &^ uint32(streams>>32)
		c.regs.Write(hw.REG_ENCRYPT_ENABLE_H, h)

		if l != 0 || h != 0 {
			stopXor = false
		}

		if hdmi {
			stopXor = true
		}

		if stopXor {
			c.regs.Clear(hw.REG_CIPHER_CONTROL, hw.CIPHER_CONTROL_XOR_ENABLE)
		}
	})

	c.log.Debugf("device %d encryption disabled on %#016x (xor stopped: %v)", c.cfg.DeviceID, streams, stopXor)

	if !stopXor {
		return
	}

	if err = c.waitXor(false); err != nil {
		return fmt.Errorf("disable encryption: %w", err)
	}

	return
}
