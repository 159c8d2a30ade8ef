// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cipher

import (
	"errors"
	"reflect"
	"testing"

	"github.com/usbarmory/hdcp1x-cipher/internal/hw"
	"github.com/usbarmory/hdcp1x-cipher/internal/sim"
)

func TestEnable_Transmitter(t *testing.T) {
	c, core := newTestCipher(t, Transmitter, DisplayPort)
	core.Poke(hw.REG_ENCRYPT_ENABLE_L, 0xf)

	if err := c.Enable(); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	if !c.IsEnabled() {
		t.Fatal("not enabled")
	}

	if got := c.Encryption(); got != 0 {
		t.Errorf("Encryption() = %#x, want 0", got)
	}

	if hw.CIPHER_CONTROL_XOR_ENABLE.IsSet(core.Reg(hw.REG_CIPHER_CONTROL)) {
		t.Error("transmitter XOR enabled")
	}
}

func TestEnable_Receiver(t *testing.T) {
	c, core := newTestCipher(t, Receiver, HDMI)

	if err := c.Enable(); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	if !hw.CIPHER_CONTROL_XOR_ENABLE.IsSet(core.Reg(hw.REG_CIPHER_CONTROL)) {
		t.Error("receiver XOR not enabled")
	}

	// single decryption path reported as stream 0
	if got := c.Encryption(); got != 0x1 {
		t.Errorf("Encryption() = %#x, want 0x1", got)
	}
}

func TestEnable_AlreadyEnabled(t *testing.T) {
	c, core := enabledTestCipher(t, Transmitter, DisplayPort)

	if err := c.Enable(); !errors.Is(err, ErrAlreadyEnabled) {
		t.Fatalf("Enable() error = %v, want ErrAlreadyEnabled", err)
	}

	if w := core.Writes(); len(w) != 0 {
		t.Errorf("writes = %v", w)
	}
}

func TestEnable_UpdateProtocol(t *testing.T) {
	c, core := newTestCipher(t, Transmitter, DisplayPort)

	if err := c.Enable(); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	writes := core.Writes()
	first, last := writes[0], writes[len(writes)-1]

	if first.Off != hw.REG_CONTROL || hw.CONTROL_UPDATE.IsSet(first.Val) {
		t.Errorf("first write %v does not clear update", first)
	}

	if last.Off != hw.REG_CONTROL || !hw.CONTROL_UPDATE.IsSet(last.Val) || !hw.CONTROL_ENABLE.IsSet(last.Val) {
		t.Errorf("last write %v does not commit", last)
	}

	for _, w := range writes[1 : len(writes)-1] {
		if w.Off == hw.REG_CONTROL && hw.CONTROL_UPDATE.IsSet(w.Val) {
			t.Errorf("update set before commit: %v", w)
		}
	}
}

func TestDisable_Idempotent(t *testing.T) {
	for _, role := range []Role{Transmitter, Receiver} {
		t.Run(role.String(), func(t *testing.T) {
			c, core := enabledTestCipher(t, role, DisplayPort)

			if err := c.Disable(); err != nil {
				t.Fatalf("Disable() error = %v", err)
			}

			first := core.Snapshot()
			core.ClearLog()

			if err := c.Disable(); err != nil {
				t.Fatalf("second Disable() error = %v", err)
			}

			if !reflect.DeepEqual(first, core.Snapshot()) {
				t.Error("second Disable() changed register state")
			}

			if w := core.Writes(); len(w) != 0 {
				t.Errorf("second Disable() writes = %v", w)
			}
		})
	}
}

func TestDisable_StopsEverything(t *testing.T) {
	c, core := enabledTestCipher(t, Transmitter, DisplayPort)

	if err := c.EnableEncryption(0x3); err != nil {
		t.Fatalf("EnableEncryption() error = %v", err)
	}

	core.Poke(hw.REG_INTERRUPT_MASK, 0)

	if err := c.Disable(); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}

	if c.IsEnabled() {
		t.Error("still enabled")
	}

	if core.XorRunning() {
		t.Error("XOR still running")
	}

	if core.Reg(hw.REG_ENCRYPT_ENABLE_L)|core.Reg(hw.REG_ENCRYPT_ENABLE_H) != 0 {
		t.Error("stream encryption left on")
	}

	if core.Reg(hw.REG_INTERRUPT_MASK) != 0xffffffff {
		t.Error("interrupts not masked")
	}

	if got := c.Encryption(); got != 0 {
		t.Errorf("Encryption() = %#x on disabled core", got)
	}
}

func TestDisable_XorStuck(t *testing.T) {
	c, core := enabledTestCipher(t, Receiver, DisplayPort)
	core.StuckXor = true

	err := c.Disable()

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Disable() error = %v, want ErrTimeout", err)
	}

	if c.IsEnabled() {
		t.Error("enable bit left set")
	}
}

func TestDisable_XorLatency(t *testing.T) {
	c, _ := enabledTestCipher(t, Receiver, DisplayPort, func(cfg *sim.Config) {
		cfg.XorLatency = 10
	})

	if err := c.Disable(); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}
}

func TestNumLanes(t *testing.T) {
	c, _ := newTestCipher(t, Transmitter, DisplayPort)

	if got := c.NumLanes(); got != 0 {
		t.Errorf("NumLanes() on disabled core = %d, want 0", got)
	}

	c.Enable()

	if got := c.NumLanes(); got != 4 {
		t.Errorf("NumLanes() = %d, want 4", got)
	}

	for _, n := range []int{1, 2, 4} {
		c.SetNumLanes(n)

		if got := c.NumLanes(); got != n {
			t.Errorf("NumLanes() = %d, want %d", got, n)
		}
	}
}

func TestSetNumLanes_Invalid(t *testing.T) {
	dp, _ := enabledTestCipher(t, Transmitter, DisplayPort)
	hdmi, _ := enabledTestCipher(t, Transmitter, HDMI)

	for _, n := range []int{0, 3, 5, -1} {
		expectPanic(t, func() { dp.SetNumLanes(n) })
	}

	for _, n := range []int{0, 2, 3, 4} {
		expectPanic(t, func() { hdmi.SetNumLanes(n) })
	}

	hdmi.SetNumLanes(1)

	if got := hdmi.NumLanes(); got != 1 {
		t.Errorf("NumLanes() = %d, want 1", got)
	}
}

func TestSetNumLanes_PreservesControl(t *testing.T) {
	c, core := enabledTestCipher(t, Transmitter, DisplayPort)

	c.SetNumLanes(2)

	ctl := core.Reg(hw.REG_CONTROL)

	if !hw.CONTROL_ENABLE.IsSet(ctl) || !hw.CONTROL_UPDATE.IsSet(ctl) {
		t.Errorf("control = %#x", ctl)
	}
}

func TestSetKeySelect(t *testing.T) {
	c, core := newTestCipher(t, Transmitter, HDMI)
	core.Poke(hw.REG_KEYMGMT_CONTROL, 0x1)

	c.SetKeySelect(5)

	if got := c.KeySelect(); got != 5 {
		t.Errorf("KeySelect() = %d, want 5", got)
	}

	if got := core.Reg(hw.REG_KEYMGMT_CONTROL); got != 0x50001 {
		t.Errorf("key management control = %#x, want 0x50001", got)
	}

	expectPanic(t, func() { c.SetKeySelect(8) })
	expectPanic(t, func() { c.SetKeySelect(-1) })
}

func TestIsLinkUp(t *testing.T) {
	c, core := newTestCipher(t, Receiver, DisplayPort)
	core.SetLinkUp(true)

	if c.IsLinkUp() {
		t.Error("link up on disabled core")
	}

	c.Enable()

	if !c.IsLinkUp() {
		t.Error("link down")
	}

	core.SetLinkUp(false)

	if c.IsLinkUp() {
		t.Error("link up")
	}
}
