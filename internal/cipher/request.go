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

// Request represents a cipher operation request.
type Request int

const (
	// RequestBlock requests a block cipher computation.
	RequestBlock Request = hw.REQUEST_BLOCK
	// RequestRekeyi requests a frame rekey.
	RequestRekeyi Request = hw.REQUEST_REKEYI
	// RequestRNG requests a random number generation.
	RequestRNG Request = hw.REQUEST_RNG
)

func (r Request) String() string {
	switch r {
	case RequestBlock:
		return "block"
	case RequestRekeyi:
		return "rekeyi"
	case RequestRNG:
		return "rng"
	default:
		return fmt.Sprintf("Request(%d)", int(r))
	}
}

// DoRequest triggers a cipher request without waiting for it, completion is
// reported by IsRequestComplete. ErrDeviceBusy is returned while a previous
// request is in progress.
func (c *Cipher) DoRequest(r Request) error {
	c.check()

	if r < RequestBlock || r >= hw.REQUEST_MAX {
		panic(fmt.Sprintf("hdcp1x: invalid request %d", r))
	}

	if !c.IsEnabled() {
		return ErrNotEnabled
	}

	if !c.IsRequestComplete() {
		return ErrDeviceBusy
	}

	c.update(func() {
		c.regs.SetN(hw.REG_CIPHER_CONTROL, hw.CIPHER_CONTROL_REQUEST, 1<<uint(r))
	})

	// the core triggers on the transition, leave the field clear for the
	// next request
	c.regs.Clear(hw.REG_CIPHER_CONTROL, hw.CIPHER_CONTROL_REQUEST)

	c.log.Debugf("device %d %s request issued", c.cfg.DeviceID, r)

	return nil
}

// IsRequestComplete returns whether no cipher request is in progress.
func (c *Cipher) IsRequestComplete() bool {
	c.check()
	return !c.regs.IsSet(hw.REG_CIPHER_STATUS, hw.CIPHER_STATUS_REQUEST_IN_PROGRESS)
}
