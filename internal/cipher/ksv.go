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

// KSV_MASK covers the 40 significant bits of a key selection vector.
const KSV_MASK = 0xffffffffff

// LocalKSV returns the local key selection vector.
//
// When the core has no local KSV available any pending Km computation is
// aborted and the KSV is reloaded, waiting for at most KEY_POLL_BUDGET status
// reads. If the KSV does not become available the returned value is 0 with
// a nil error, only a disabled core returns ErrNotEnabled.
func (c *Cipher) LocalKSV() (ksv uint64, err error) {
	if !c.IsEnabled() {
		return 0, ErrNotEnabled
	}

	if !c.localKSVReady() {
		c.regs.Pulse(hw.REG_KEYMGMT_CONTROL, hw.KEYMGMT_CONTROL_ABORT_KM)
		c.regs.Pulse(hw.REG_KEYMGMT_CONTROL, hw.KEYMGMT_CONTROL_LOCAL_KSV)

		if poll(KEY_POLL_BUDGET, c.localKSVReady) != nil {
			c.log.Warnf("device %d local KSV not ready after %d polls", c.cfg.DeviceID, KEY_POLL_BUDGET)
			return
		}
	}

	ksv = uint64(c.regs.Get(hw.REG_KSV_LOCAL_H, hw.KSV_HIGH)) << 32
	ksv |= uint64(c.regs.Read(hw.REG_KSV_LOCAL_L))

	return
}

// IsLocalKSVReady returns whether the local KSV can be read without
// reloading it.
func (c *Cipher) IsLocalKSVReady() bool {
	c.check()
	return c.localKSVReady()
}

// RemoteKSV returns the remote key selection vector last written with
// SetRemoteKSV.
func (c *Cipher) RemoteKSV() (ksv uint64) {
	c.check()

	ksv = uint64(c.regs.Read(hw.REG_KSV_REMOTE_H)) << 32
	ksv |= uint64(c.regs.Read(hw.REG_KSV_REMOTE_L))

	return
}

// SetRemoteKSV writes the remote key selection vector and computes Km,
// waiting for at most KEY_POLL_BUDGET status reads for its completion.
//
// The remote KSV registers hold the written value even when ErrTimeout is
// returned.
func (c *Cipher) SetRemoteKSV(ksv uint64) (err error) {
	if !c.IsEnabled() {
		return ErrNotEnabled
	}

	// put the key management block in a known state
	c.LocalKSV()

	c.update(func() {
		c.regs.Write(hw.REG_KSV_REMOTE_L, uint32(ksv))
		c.regs.Write(hw.REG_KSV_REMOTE_H, hw.KSV_HIGH.Get(uint32(ksv>>32)))
	})

	val := c.regs.Read(hw.REG_KEYMGMT_CONTROL)
	hw.KEYMGMT_CONTROL_COMMAND.Clear(&val)

	hw.KEYMGMT_CONTROL_BEGIN_KM.Fill(&val)
	c.regs.Write(hw.REG_KEYMGMT_CONTROL, val)

	hw.KEYMGMT_CONTROL_BEGIN_KM.Clear(&val)
	c.regs.Write(hw.REG_KEYMGMT_CONTROL, val)

	if poll(KEY_POLL_BUDGET, c.kmReady) != nil {
		c.log.Warnf("device %d Km not ready after %d polls", c.cfg.DeviceID, KEY_POLL_BUDGET)
		return fmt.Errorf("%w: Km not ready after %d polls", ErrTimeout, KEY_POLL_BUDGET)
	}

	c.log.Debugf("device %d Km computed for remote KSV %#010x", c.cfg.DeviceID, ksv&KSV_MASK)

	return
}

func (c *Cipher) getTriplet(regs [3]uint32, out [3]*uint32) error {
	if !c.IsEnabled() {
		return ErrNotEnabled
	}

	for i, p := range out {
		if p != nil {
			*p = c.regs.Get(regs[i], hw.CIPHER_WORD)
		}
	}

	return nil
}

func (c *Cipher) setTriplet(regs [3]uint32, val [3]uint32) error {
	if !c.IsEnabled() {
		return ErrNotEnabled
	}

	c.update(func() {
		for i, off := range regs {
			c.regs.Write(off, hw.CIPHER_WORD.Get(val[i]))
		}
	})

	return nil
}

var (
	bRegs = [3]uint32{hw.REG_CIPHER_BX, hw.REG_CIPHER_BY, hw.REG_CIPHER_BZ}
	kRegs = [3]uint32{hw.REG_CIPHER_KX, hw.REG_CIPHER_KY, hw.REG_CIPHER_KZ}
)

// B reads the 28-bit fields of the cipher B register, nil arguments are
// skipped.
func (c *Cipher) B(x, y, z *uint32) error {
	return c.getTriplet(bRegs, [3]*uint32{x, y, z})
}

// SetB writes all fields of the cipher B register, values are truncated to
// 28 bits.
func (c *Cipher) SetB(x, y, z uint32) error {
	return c.setTriplet(bRegs, [3]uint32{x, y, z})
}

// K reads the 28-bit fields of the cipher K register, nil arguments are
// skipped.
func (c *Cipher) K(x, y, z *uint32) error {
	return c.getTriplet(kRegs, [3]*uint32{x, y, z})
}

// SetK writes all fields of the cipher K register, values are truncated to
// 28 bits.
func (c *Cipher) SetK(x, y, z uint32) error {
	return c.setTriplet(kRegs, [3]uint32{x, y, z})
}

func (c *Cipher) read64(h, l uint32) (val uint64, err error) {
	if !c.IsEnabled() {
		return 0, ErrNotEnabled
	}

	val = uint64(c.regs.Read(h)) << 32
	val |= uint64(c.regs.Read(l))

	return
}

func (c *Cipher) read16(off uint32) (uint16, error) {
	if !c.IsEnabled() {
		return 0, ErrNotEnabled
	}

	return uint16(c.regs.Get(off, hw.CIPHER_R)), nil
}

// Mi returns the cipher Mi intermediate value.
func (c *Cipher) Mi() (uint64, error) {
	return c.read64(hw.REG_CIPHER_MI_H, hw.REG_CIPHER_MI_L)
}

// Mo returns the cipher Mo intermediate value.
func (c *Cipher) Mo() (uint64, error) {
	return c.read64(hw.REG_CIPHER_MO_H, hw.REG_CIPHER_MO_L)
}

// Ri returns the cipher Ri link verification value.
func (c *Cipher) Ri() (uint16, error) {
	return c.read16(hw.REG_CIPHER_RI)
}

// Ro returns the cipher Ro link verification value.
func (c *Cipher) Ro() (uint16, error) {
	return c.read16(hw.REG_CIPHER_RO)
}
