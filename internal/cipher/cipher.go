// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package cipher implements a driver for the HDCP 1.x cipher core found in
// HDMI and DisplayPort link endpoints.
//
// The driver sequences register transactions for the core lifecycle, per
// stream encryption, key selection vector exchange and Km computation. All
// cryptographic computation happens in hardware.
//
// A Cipher is a thin handle: apart from its configuration it holds no state
// that is not re-read from hardware. The driver performs no locking, callers
// sharing an instance must serialize access (see Exclusive).
package cipher

import (
	"fmt"

	"github.com/pion/logging"

	"github.com/usbarmory/hdcp1x-cipher/internal/hw"
	"github.com/usbarmory/hdcp1x-cipher/internal/reg"
)

// DEFAULT_ACK_BUDGET is the default number of status reads performed while
// waiting for the XOR engine to acknowledge a state change.
const DEFAULT_ACK_BUDGET = 0x400

// Role represents the link direction of a cipher core.
type Role int

const (
	Transmitter Role = iota
	Receiver
)

func (r Role) String() string {
	switch r {
	case Transmitter:
		return "transmitter"
	case Receiver:
		return "receiver"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Protocol represents the video link protocol of a cipher core.
type Protocol int

const (
	DisplayPort Protocol = iota
	HDMI
)

func (p Protocol) String() string {
	switch p {
	case DisplayPort:
		return "displayport"
	case HDMI:
		return "hdmi"
	default:
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
}

// Config represents a cipher core instance configuration, it must not be
// modified once passed to Init.
type Config struct {
	// DeviceID identifies the instance.
	DeviceID uint16

	// BaseAddress is the register block base address.
	BaseAddress uintptr

	// Role must match the direction reported by the hardware.
	Role Role

	// Protocol must match the protocol reported by the hardware.
	Protocol Protocol

	// AckBudget bounds the number of status reads performed while
	// waiting for the XOR engine to start or stop.
	// Defaults to DEFAULT_ACK_BUDGET if 0.
	AckBudget int

	// LoggerFactory is the factory for creating loggers.
	// If nil, the pion default factory is used.
	LoggerFactory logging.LoggerFactory
}

// Cipher represents an initialized cipher core instance.
type Cipher struct {
	cfg  *Config
	regs reg.Block

	ready     bool
	ackBudget uint64

	// interrupt callbacks
	linkFail func()
	riUpdate func()

	log logging.LeveledLogger
}

// Init validates the configuration against the hardware, resets the core
// and returns its handle.
//
// On a role or protocol mismatch ErrConfigurationMismatch is returned and
// the core is left untouched.
func Init(bus reg.Bus, cfg *Config) (c *Cipher, err error) {
	if c, err = newCipher(bus, cfg); err != nil {
		return nil, err
	}

	c.reset()
	c.ready = true

	c.log.Infof("device %d at %#x: %s %s %s ready",
		cfg.DeviceID, cfg.BaseAddress, c.Version(), cfg.Protocol, cfg.Role)

	return
}

// Attach validates the configuration against the hardware and returns a
// handle to the core in its current state, no register is written.
func Attach(bus reg.Bus, cfg *Config) (c *Cipher, err error) {
	if c, err = newCipher(bus, cfg); err != nil {
		return nil, err
	}

	c.ready = true

	c.log.Debugf("device %d at %#x: %s %s %s attached",
		cfg.DeviceID, cfg.BaseAddress, c.Version(), cfg.Protocol, cfg.Role)

	return
}

func newCipher(bus reg.Bus, cfg *Config) (c *Cipher, err error) {
	if bus == nil || cfg == nil {
		panic("hdcp1x: invalid arguments")
	}

	c = &Cipher{
		cfg: cfg,
		regs: reg.Block{
			Bus:  bus,
			Base: cfg.BaseAddress,
		},
		ackBudget: DEFAULT_ACK_BUDGET,
	}

	if cfg.AckBudget > 0 {
		c.ackBudget = uint64(cfg.AckBudget)
	}

	factory := cfg.LoggerFactory

	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}

	c.log = factory.NewLogger("hdcp1x")

	role, protocol := c.hardwareRole(), c.hardwareProtocol()

	if role != cfg.Role || protocol != cfg.Protocol {
		c.log.Errorf("device %d at %#x: hardware is %s %s, configured as %s %s",
			cfg.DeviceID, cfg.BaseAddress, protocol, role, cfg.Protocol, cfg.Role)

		return nil, fmt.Errorf("%w: hardware is %s %s, configured as %s %s",
			ErrConfigurationMismatch, protocol, role, cfg.Protocol, cfg.Role)
	}

	return
}

// reset pulses the core reset, masks and acknowledges all interrupts and
// applies the protocol default lane configuration.
func (c *Cipher) reset() {
	c.regs.Pulse(hw.REG_CONTROL, hw.CONTROL_RESET)

	c.regs.Write(hw.REG_INTERRUPT_MASK, hw.INTERRUPT_ALL.Value())
	c.regs.Write(hw.REG_INTERRUPT_STATUS, hw.INTERRUPT_ALL.Value())

	lanes := uint32(1)

	if c.IsDP() {
		// four lanes SST
		lanes = hw.MAX_LANES
	}

	c.update(func() {
		c.regs.SetN(hw.REG_CONTROL, hw.CONTROL_NUM_LANES, lanes)
	})
}

// update runs fn between clearing and setting the register update bit, the
// core latches the staged fields on its rising edge.
func (c *Cipher) update(fn func()) {
	c.regs.Clear(hw.REG_CONTROL, hw.CONTROL_UPDATE)
	fn()
	c.regs.Set(hw.REG_CONTROL, hw.CONTROL_UPDATE)
}

func (c *Cipher) check() {
	if c == nil || !c.ready {
		panic("hdcp1x: device not initialized")
	}
}

func (c *Cipher) hardwareRole() Role {
	if c.regs.Get(hw.REG_TYPE, hw.TYPE_DIRECTION) == hw.TYPE_DIRECTION_RX {
		return Receiver
	}

	return Transmitter
}

func (c *Cipher) hardwareProtocol() Protocol {
	if c.regs.Get(hw.REG_TYPE, hw.TYPE_PROTOCOL) == hw.TYPE_PROTOCOL_HDMI {
		return HDMI
	}

	return DisplayPort
}

// Config returns the instance configuration.
func (c *Cipher) Config() Config {
	c.check()
	return *c.cfg
}

// IsRX returns whether the core is a receiver.
func (c *Cipher) IsRX() bool {
	return c.hardwareRole() == Receiver
}

// IsTX returns whether the core is a transmitter.
func (c *Cipher) IsTX() bool {
	return c.hardwareRole() == Transmitter
}

// IsHDMI returns whether the core serves an HDMI link.
func (c *Cipher) IsHDMI() bool {
	return c.hardwareProtocol() == HDMI
}

// IsDP returns whether the core serves a DisplayPort link.
func (c *Cipher) IsDP() bool {
	return c.hardwareProtocol() == DisplayPort
}

// Version returns the core version, it is available regardless of the
// enable state.
func (c *Cipher) Version() Version {
	return Version(c.regs.Read(hw.REG_VERSION))
}
