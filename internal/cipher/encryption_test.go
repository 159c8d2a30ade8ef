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

func xorEnabled(core *sim.Core) bool {
	return hw.CIPHER_CONTROL_XOR_ENABLE.IsSet(core.Reg(hw.REG_CIPHER_CONTROL))
}

func TestEncryption_FreshTransmitter(t *testing.T) {
	c, _ := enabledTestCipher(t, Transmitter, DisplayPort)

	if got := c.Encryption(); got != 0 {
		t.Fatalf("Encryption() = %#x, want 0", got)
	}
}

func TestEncryption_ZeroMapIsNoop(t *testing.T) {
	c, core := enabledTestCipher(t, Transmitter, DisplayPort)

	if err := c.EnableEncryption(0x4); err != nil {
		t.Fatalf("EnableEncryption() error = %v", err)
	}

	before := core.Snapshot()
	core.ClearLog()

	if err := c.EnableEncryption(0); err != nil {
		t.Errorf("EnableEncryption(0) error = %v", err)
	}

	if err := c.DisableEncryption(0); err != nil {
		t.Errorf("DisableEncryption(0) error = %v", err)
	}

	if w := core.Writes(); len(w) != 0 {
		t.Errorf("writes = %v", w)
	}

	after := core.Snapshot()

	for i := range before {
		if before[i] != after[i] {
			t.Errorf("register %#x changed", i*4)
		}
	}
}

func TestEnableEncryption(t *testing.T) {
	tests := []struct {
		name string
		maps []uint64
		want uint64
	}{
		{"stream0", []uint64{0x1}, 0x1},
		{"low", []uint64{0x5}, 0x5},
		{"high", []uint64{1 << 63}, 1 << 63},
		{"split", []uint64{0x00000001_80000000}, 0x00000001_80000000},
		{"accumulate", []uint64{0x1, 0x2, 1 << 40}, 1<<40 | 0x3},
		{"all", []uint64{^uint64(0)}, ^uint64(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, core := enabledTestCipher(t, Transmitter, DisplayPort)

			for _, m := range tt.maps {
				if err := c.EnableEncryption(m); err != nil {
					t.Fatalf("EnableEncryption(%#x) error = %v", m, err)
				}
			}

			if got := c.Encryption(); got != tt.want {
				t.Errorf("Encryption() = %#x, want %#x", got, tt.want)
			}

			if !xorEnabled(core) || !core.XorRunning() {
				t.Error("XOR not enabled")
			}
		})
	}
}

func TestEnableEncryption_UpdateProtocol(t *testing.T) {
	c, core := enabledTestCipher(t, Transmitter, DisplayPort)

	if err := c.EnableEncryption(0x00000002_00000001); err != nil {
		t.Fatalf("EnableEncryption() error = %v", err)
	}

	var offs []uint32

	for _, w := range core.Writes() {
		offs = append(offs, w.Off)
	}

	want := []uint32{
		hw.REG_CONTROL,
		hw.REG_ENCRYPT_ENABLE_L,
		hw.REG_ENCRYPT_ENABLE_H,
		hw.REG_CIPHER_CONTROL,
		hw.REG_CONTROL,
	}

	if len(offs) != len(want) {
		t.Fatalf("write offsets = %#x, want %#x", offs, want)
	}

	for i := range want {
		if offs[i] != want[i] {
			t.Fatalf("write offsets = %#x, want %#x", offs, want)
		}
	}
}

func TestEnableEncryption_Errors(t *testing.T) {
	tx, _ := newTestCipher(t, Transmitter, DisplayPort)

	if err := tx.EnableEncryption(0x1); !errors.Is(err, ErrNotEnabled) {
		t.Errorf("EnableEncryption() on disabled core error = %v", err)
	}

	if err := tx.DisableEncryption(0x1); !errors.Is(err, ErrNotEnabled) {
		t.Errorf("DisableEncryption() on disabled core error = %v", err)
	}

	rx, core := enabledTestCipher(t, Receiver, DisplayPort)

	if err := rx.EnableEncryption(0x1); !errors.Is(err, ErrInvalidForRole) {
		t.Errorf("EnableEncryption() on receiver error = %v", err)
	}

	if err := rx.DisableEncryption(0x1); !errors.Is(err, ErrInvalidForRole) {
		t.Errorf("DisableEncryption() on receiver error = %v", err)
	}

	// also for empty maps
	if err := rx.EnableEncryption(0); !errors.Is(err, ErrInvalidForRole) {
		t.Errorf("EnableEncryption(0) on receiver error = %v", err)
	}

	if w := core.Writes(); len(w) != 0 {
		t.Errorf("writes = %v", w)
	}
}

func TestEnableEncryption_XorNeverStarts(t *testing.T) {
	c, core := enabledTestCipher(t, Transmitter, DisplayPort)
	core.StuckXor = true

	if err := c.EnableEncryption(0x1); !errors.Is(err, ErrTimeout) {
		t.Fatalf("EnableEncryption() error = %v, want ErrTimeout", err)
	}

	// the map is committed regardless
	if got := core.Reg(hw.REG_ENCRYPT_ENABLE_L); got != 0x1 {
		t.Errorf("encrypt enable = %#x", got)
	}
}

func TestEnableEncryption_XorLatency(t *testing.T) {
	c, _ := enabledTestCipher(t, Transmitter, DisplayPort, func(cfg *sim.Config) {
		cfg.XorLatency = 32
	})

	if err := c.EnableEncryption(0x1); err != nil {
		t.Fatalf("EnableEncryption() error = %v", err)
	}
}

func TestDisableEncryption_DisplayPort(t *testing.T) {
	c, core := enabledTestCipher(t, Transmitter, DisplayPort)

	if err := c.EnableEncryption(1<<33 | 0x3); err != nil {
		t.Fatalf("EnableEncryption() error = %v", err)
	}

	// partial disable keeps the XOR engine running
	if err := c.DisableEncryption(0x1); err != nil {
		t.Fatalf("DisableEncryption() error = %v", err)
	}

	if got := c.Encryption(); got != 1<<33|0x2 {
		t.Errorf("Encryption() = %#x", got)
	}

	if !xorEnabled(core) || !core.XorRunning() {
		t.Error("XOR stopped on partial disable")
	}

	// only high streams left
	if err := c.DisableEncryption(0x2); err != nil {
		t.Fatalf("DisableEncryption() error = %v", err)
	}

	if !xorEnabled(core) {
		t.Error("XOR stopped with high streams active")
	}

	// disabling streams which are not active clears nothing else
	if err := c.DisableEncryption(1 << 50); err != nil {
		t.Fatalf("DisableEncryption() error = %v", err)
	}

	if got := c.Encryption(); got != 1<<33 {
		t.Errorf("Encryption() = %#x", got)
	}

	if err := c.DisableEncryption(^uint64(0)); err != nil {
		t.Fatalf("DisableEncryption() error = %v", err)
	}

	if xorEnabled(core) || core.XorRunning() {
		t.Error("XOR running with no stream active")
	}

	if got := c.Encryption(); got != 0 {
		t.Errorf("Encryption() = %#x, want 0", got)
	}
}

func TestDisableEncryption_HDMI(t *testing.T) {
	c, core := enabledTestCipher(t, Transmitter, HDMI)

	if err := c.EnableEncryption(0x3); err != nil {
		t.Fatalf("EnableEncryption() error = %v", err)
	}

	if err := c.DisableEncryption(0x1); err != nil {
		t.Fatalf("DisableEncryption() error = %v", err)
	}

	if xorEnabled(core) || core.XorRunning() {
		t.Error("HDMI XOR left running on partial disable")
	}

	// residual map is retained
	if got := core.Reg(hw.REG_ENCRYPT_ENABLE_L); got != 0x2 {
		t.Errorf("encrypt enable = %#x, want 0x2", got)
	}
}

func TestDisableEncryption_XorNeverStops(t *testing.T) {
	c, core := enabledTestCipher(t, Transmitter, DisplayPort)

	if err := c.EnableEncryption(0x1); err != nil {
		t.Fatalf("EnableEncryption() error = %v", err)
	}

	core.StuckXor = true

	if err := c.DisableEncryption(0x1); !errors.Is(err, ErrTimeout) {
		t.Fatalf("DisableEncryption() error = %v, want ErrTimeout", err)
	}
}
