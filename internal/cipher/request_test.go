// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cipher

import (
	"errors"
	"testing"

	"github.com/usbarmory/hdcp1x-cipher/internal/hw"
	"github.com/usbarmory/hdcp1x-cipher/internal/sim"
)

func waitRequest(t *testing.T, c *Cipher) {
	t.Helper()

	for i := 0; i < 16; i++ {
		if c.IsRequestComplete() {
			return
		}
	}

	t.Fatal("request not complete")
}

func TestDoRequest(t *testing.T) {
	for _, r := range []Request{RequestBlock, RequestRekeyi, RequestRNG} {
		t.Run(r.String(), func(t *testing.T) {
			c, core := enabledTestCipher(t, Transmitter, DisplayPort, func(cfg *sim.Config) {
				cfg.RequestLatency = 4
			})

			if !c.IsRequestComplete() {
				t.Fatal("request pending on enabled core")
			}

			if err := c.DoRequest(r); err != nil {
				t.Fatalf("DoRequest(%s) error = %v", r, err)
			}

			status := core.Reg(hw.REG_CIPHER_STATUS)

			if got := hw.CIPHER_STATUS_REQUEST_IN_PROGRESS.Get(status); got != 1<<uint(r) {
				t.Errorf("request in progress = %#x, want %#x", got, 1<<uint(r))
			}

			if got := hw.CIPHER_CONTROL_REQUEST.Get(core.Reg(hw.REG_CIPHER_CONTROL)); got != 0 {
				t.Errorf("request field left set: %#x", got)
			}

			waitRequest(t, c)

			if mi, _ := c.Mi(); mi == 0 {
				t.Error("Mi not updated by request")
			}
		})
	}
}

func TestDoRequest_UpdateProtocol(t *testing.T) {
	c, core := enabledTestCipher(t, Transmitter, HDMI)

	if err := c.DoRequest(RequestBlock); err != nil {
		t.Fatalf("DoRequest() error = %v", err)
	}

	var offs []uint32

	for _, w := range core.Writes() {
		offs = append(offs, w.Off)
	}

	want := []uint32{hw.REG_CONTROL, hw.REG_CIPHER_CONTROL, hw.REG_CONTROL, hw.REG_CIPHER_CONTROL}

	if len(offs) != len(want) {
		t.Fatalf("write offsets = %#x, want %#x", offs, want)
	}

	for i := range want {
		if offs[i] != want[i] {
			t.Fatalf("write offsets = %#x, want %#x", offs, want)
		}
	}
}

func TestDoRequest_Busy(t *testing.T) {
	c, _ := enabledTestCipher(t, Transmitter, DisplayPort, func(cfg *sim.Config) {
		cfg.RequestLatency = 8
	})

	if err := c.DoRequest(RequestBlock); err != nil {
		t.Fatalf("DoRequest() error = %v", err)
	}

	if err := c.DoRequest(RequestRNG); !errors.Is(err, ErrDeviceBusy) {
		t.Fatalf("DoRequest() error = %v, want ErrDeviceBusy", err)
	}

	waitRequest(t, c)

	if err := c.DoRequest(RequestRNG); err != nil {
		t.Fatalf("DoRequest() after completion error = %v", err)
	}
}

func TestDoRequest_NotEnabled(t *testing.T) {
	c, core := newTestCipher(t, Transmitter, DisplayPort)

	if err := c.DoRequest(RequestBlock); !errors.Is(err, ErrNotEnabled) {
		t.Fatalf("DoRequest() error = %v, want ErrNotEnabled", err)
	}

	if w := core.Writes(); len(w) != 0 {
		t.Errorf("writes = %v", w)
	}
}

func TestDoRequest_Invalid(t *testing.T) {
	c, _ := enabledTestCipher(t, Transmitter, DisplayPort)

	expectPanic(t, func() { c.DoRequest(Request(hw.REQUEST_MAX)) })
	expectPanic(t, func() { c.DoRequest(Request(-1)) })

	if Request(9).String() != "Request(9)" {
		t.Errorf("unknown request = %s", Request(9))
	}
}
