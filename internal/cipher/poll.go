// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cipher

import (
	"github.com/cenkalti/backoff"

	"github.com/usbarmory/hdcp1x-cipher/internal/hw"
)

// KEY_POLL_BUDGET is the number of status reads performed while waiting for
// the local KSV or Km to become available.
const KEY_POLL_BUDGET = 0x400

// poll evaluates cond up to budget times, and at least once, with no delay
// in between and returns ErrTimeout if it never holds.
func poll(budget uint64, cond func() bool) error {
	op := func() error {
		if cond() {
			return nil
		}

		return ErrTimeout
	}

	// a zero retry limit means no limit to WithMaxRetries
	if budget <= 1 {
		return op()
	}

	return backoff.Retry(op, backoff.WithMaxRetries(&backoff.ZeroBackOff{}, budget-1))
}

func (c *Cipher) xorInProgress() bool {
	return c.regs.IsSet(hw.REG_CIPHER_STATUS, hw.CIPHER_STATUS_XOR_IN_PROGRESS)
}

func (c *Cipher) xorStopped() bool {
	return !c.xorInProgress()
}

func (c *Cipher) localKSVReady() bool {
	return c.regs.IsSet(hw.REG_KEYMGMT_STATUS, hw.KEYMGMT_STATUS_KSV_READY)
}

func (c *Cipher) kmReady() bool {
	return c.regs.IsSet(hw.REG_KEYMGMT_STATUS, hw.KEYMGMT_STATUS_KM_READY)
}

// waitXor waits for the XOR engine to reach the requested running state.
func (c *Cipher) waitXor(running bool) (err error) {
	cond := c.xorStopped

	if running {
		cond = c.xorInProgress
	}

	if err = poll(c.ackBudget, cond); err != nil {
		c.log.Warnf("XOR engine did not reach running=%v after %d polls", running, c.ackBudget)
	}

	return
}
