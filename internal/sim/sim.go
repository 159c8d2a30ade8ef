// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package sim provides a behavioral model of the HDCP 1.x cipher core
// register block.
//
// The model latches staged fields on the rising edge of the control update
// bit, runs the XOR engine, key management and request state machines with
// configurable latency (counted in status register reads) and supports fault
// injection. It performs no HDCP cryptography, values "computed" by the core
// are BLAKE2b derived placeholders.
package sim

import (
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/usbarmory/hdcp1x-cipher/internal/hw"
)

// Config represents the simulated core wiring and timing.
type Config struct {
	// Base is the register block base address.
	Base uintptr

	// Receiver and HDMI select the direction and protocol reported in
	// the type register.
	Receiver bool
	HDMI     bool

	// Version is the version register value.
	Version uint32

	// LocalKSV is the device key selection vector (40 bits).
	LocalKSV uint64

	// Latencies, as the number of reads of the relevant status register
	// which make a state change visible, 0 makes changes immediate.
	XorLatency     int
	KSVLatency     int
	KmLatency      int
	RequestLatency int
}

// Access represents a recorded register access.
type Access struct {
	Write bool
	Off   uint32
	Val   uint32
}

func (a Access) String() string {
	op := "R"

	if a.Write {
		op = "W"
	}

	return fmt.Sprintf("%s %#02x %#08x", op, a.Off, a.Val)
}

// Core is a simulated cipher core, it implements reg.Bus.
type Core struct {
	sync.Mutex

	cfg  Config
	regs [hw.REG_SIZE / 4]uint32

	// fault injection
	StuckXor bool
	NoKSV    bool
	NoKm     bool

	log []Access

	xorTarget  bool
	xorPending int
	ksvPending int
	kmPending  int
	reqPending int

	requests uint64
}

const idle = -1

// New returns a simulated core in its power-on state.
func New(cfg Config) (c *Core) {
	c = &Core{
		cfg: cfg,
	}

	c.reset()

	return
}

func (c *Core) reset() {
	for i := range c.regs {
		c.regs[i] = 0
	}

	var typ uint32

	if c.cfg.HDMI {
		hw.TYPE_PROTOCOL.Put(&typ, hw.TYPE_PROTOCOL_HDMI)
	}

	if c.cfg.Receiver {
		hw.TYPE_DIRECTION.Put(&typ, hw.TYPE_DIRECTION_RX)
	}

	c.regs[hw.REG_TYPE/4] = typ
	c.regs[hw.REG_VERSION/4] = c.cfg.Version

	c.xorTarget = false
	c.xorPending = idle
	c.ksvPending = idle
	c.kmPending = idle
	c.reqPending = idle
}

func (c *Core) offset(addr uintptr) uint32 {
	if addr < c.cfg.Base || addr-c.cfg.Base >= hw.REG_SIZE || addr%4 != 0 {
		panic(fmt.Sprintf("sim: invalid access at %#x", addr))
	}

	return uint32(addr - c.cfg.Base)
}

func (c *Core) get(off uint32) uint32 {
	return c.regs[off/4]
}

func (c *Core) put(off uint32, val uint32) {
	c.regs[off/4] = val
}

func (c *Core) isSet(off uint32, mask uint32) bool {
	return c.regs[off/4]&mask != 0
}

func (c *Core) setBits(off uint32, mask uint32, on bool) {
	if on {
		c.regs[off/4] |= mask
	} else {
		c.regs[off/4] &^= mask
	}
}

// Read32 implements reg.Bus.
func (c *Core) Read32(addr uintptr) uint32 {
	c.Lock()
	defer c.Unlock()

	off := c.offset(addr)

	switch off {
	case hw.REG_CIPHER_STATUS:
		c.tickXor()
		c.tickRequest()
	case hw.REG_KEYMGMT_STATUS:
		c.tickKSV()
		c.tickKm()
	}

	val := c.get(off)
	c.log = append(c.log, Access{Off: off, Val: val})

	return val
}

// Write32 implements reg.Bus.
func (c *Core) Write32(addr uintptr, val uint32) {
	c.Lock()
	defer c.Unlock()

	off := c.offset(addr)
	old := c.get(off)

	c.log = append(c.log, Access{Write: true, Off: off, Val: val})

	switch off {
	case hw.REG_VERSION, hw.REG_TYPE, hw.REG_STATUS,
		hw.REG_KEYMGMT_STATUS, hw.REG_KSV_LOCAL_H, hw.REG_KSV_LOCAL_L,
		hw.REG_KM_H, hw.REG_KM_L, hw.REG_CIPHER_STATUS,
		hw.REG_CIPHER_MI_H, hw.REG_CIPHER_MI_L, hw.REG_CIPHER_MO_H, hw.REG_CIPHER_MO_L,
		hw.REG_CIPHER_RI, hw.REG_CIPHER_RO:
		// read-only
	case hw.REG_INTERRUPT_STATUS:
		c.put(off, old&^val)
	case hw.REG_CONTROL:
		c.put(off, val)
		c.control(old, val)
	case hw.REG_KEYMGMT_CONTROL:
		c.put(off, val)
		c.keyManagement(old, val)
	case hw.REG_CIPHER_CONTROL:
		c.put(off, val)
		c.cipherControl(old, val)
	default:
		c.put(off, val)
	}
}

func rising(old, val uint32, mask uint32) bool {
	return old&mask == 0 && val&mask != 0
}

func (c *Core) enabled() bool {
	return c.isSet(hw.REG_CONTROL, hw.CONTROL_ENABLE.Value())
}

func (c *Core) control(old, val uint32) {
	if rising(old, val, hw.CONTROL_RESET.Value()) {
		c.reset()
		c.put(hw.REG_CONTROL, val)
		return
	}

	if rising(old, val, hw.CONTROL_UPDATE.Value()) {
		c.latch()
	}
}

// latch applies staged fields on the update bit rising edge.
func (c *Core) latch() {
	run := c.enabled() && c.isSet(hw.REG_CIPHER_CONTROL, hw.CIPHER_CONTROL_XOR_ENABLE.Value())

	if run == c.xorTarget {
		return
	}

	c.xorTarget = run

	if c.StuckXor {
		return
	}

	if c.xorPending = c.cfg.XorLatency; c.xorPending == 0 {
		c.tickXor()
	}
}

func (c *Core) tickXor() {
	if c.xorPending == idle {
		return
	}

	if c.xorPending--; c.xorPending > 0 {
		return
	}

	c.setBits(hw.REG_CIPHER_STATUS, hw.CIPHER_STATUS_XOR_IN_PROGRESS.Value(), c.xorTarget)
	c.xorPending = idle
}

func (c *Core) keyManagement(old, val uint32) {
	var status uint32 = hw.REG_KEYMGMT_STATUS

	if rising(old, val, hw.KEYMGMT_CONTROL_ABORT_KM.Value()) {
		c.setBits(status, hw.KEYMGMT_STATUS_KM_READY.Value(), false)
		c.kmPending = idle
	}

	if rising(old, val, hw.KEYMGMT_CONTROL_LOCAL_KSV.Value()) {
		c.setBits(status, hw.KEYMGMT_STATUS_KSV_READY.Value(), false)

		if !c.NoKSV {
			if c.ksvPending = c.cfg.KSVLatency; c.ksvPending == 0 {
				c.tickKSV()
			}
		}
	}

	if rising(old, val, hw.KEYMGMT_CONTROL_BEGIN_KM.Value()) {
		c.setBits(status, hw.KEYMGMT_STATUS_KM_READY.Value(), false)

		if !c.NoKm && c.enabled() {
			if c.kmPending = c.cfg.KmLatency; c.kmPending == 0 {
				c.tickKm()
			}
		}
	}
}

func (c *Core) tickKSV() {
	if c.ksvPending == idle {
		return
	}

	if c.ksvPending--; c.ksvPending > 0 {
		return
	}

	c.put(hw.REG_KSV_LOCAL_H, uint32(c.cfg.LocalKSV>>32)&0xff)
	c.put(hw.REG_KSV_LOCAL_L, uint32(c.cfg.LocalKSV))
	c.setBits(hw.REG_KEYMGMT_STATUS, hw.KEYMGMT_STATUS_KSV_READY.Value(), true)
	c.ksvPending = idle
}

func (c *Core) tickKm() {
	if c.kmPending == idle {
		return
	}

	if c.kmPending--; c.kmPending > 0 {
		return
	}

	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:], c.cfg.LocalKSV)
	binary.BigEndian.PutUint32(buf[8:], c.get(hw.REG_KSV_REMOTE_H))
	binary.BigEndian.PutUint32(buf[12:], c.get(hw.REG_KSV_REMOTE_L))

	sum := blake2b.Sum256(buf)

	c.put(hw.REG_KM_H, hw.KM_HIGH.Get(binary.BigEndian.Uint32(sum[0:])))
	c.put(hw.REG_KM_L, binary.BigEndian.Uint32(sum[4:]))
	c.setBits(hw.REG_KEYMGMT_STATUS, hw.KEYMGMT_STATUS_KM_READY.Value(), true)
	c.kmPending = idle
}

func (c *Core) cipherControl(old, val uint32) {
	req := hw.CIPHER_CONTROL_REQUEST

	if req.Get(old) != 0 || req.Get(val) == 0 || !c.enabled() || c.reqPending != idle {
		return
	}

	status := c.get(hw.REG_CIPHER_STATUS)
	hw.CIPHER_STATUS_REQUEST_IN_PROGRESS.Put(&status, req.Get(val))
	c.put(hw.REG_CIPHER_STATUS, status)

	c.reqPending = c.cfg.RequestLatency
}

func (c *Core) tickRequest() {
	if c.reqPending == idle {
		return
	}

	if c.reqPending--; c.reqPending > 0 {
		return
	}

	status := c.get(hw.REG_CIPHER_STATUS)
	kind := hw.CIPHER_STATUS_REQUEST_IN_PROGRESS.Get(status)
	hw.CIPHER_STATUS_REQUEST_IN_PROGRESS.Clear(&status)
	c.put(hw.REG_CIPHER_STATUS, status)

	c.requests++

	buf := make([]byte, 40)
	binary.BigEndian.PutUint32(buf[0:], c.get(hw.REG_KM_H))
	binary.BigEndian.PutUint32(buf[4:], c.get(hw.REG_KM_L))

	for i, off := range []uint32{
		hw.REG_CIPHER_BX, hw.REG_CIPHER_BY, hw.REG_CIPHER_BZ,
		hw.REG_CIPHER_KX, hw.REG_CIPHER_KY, hw.REG_CIPHER_KZ,
	} {
		binary.BigEndian.PutUint32(buf[8+i*4:], c.get(off))
	}

	binary.BigEndian.PutUint64(buf[32:], c.requests)

	sum := blake2b.Sum512(buf)

	c.put(hw.REG_CIPHER_MI_H, binary.BigEndian.Uint32(sum[0:]))
	c.put(hw.REG_CIPHER_MI_L, binary.BigEndian.Uint32(sum[4:]))
	c.put(hw.REG_CIPHER_MO_H, binary.BigEndian.Uint32(sum[8:]))
	c.put(hw.REG_CIPHER_MO_L, binary.BigEndian.Uint32(sum[12:]))
	c.put(hw.REG_CIPHER_RI, uint32(binary.BigEndian.Uint16(sum[16:])))
	c.put(hw.REG_CIPHER_RO, uint32(binary.BigEndian.Uint16(sum[18:])))

	if kind&(1<<hw.REQUEST_REKEYI) != 0 {
		c.raise(hw.INTERRUPT_RI_UPDATE.Value())
	}

	c.reqPending = idle
}

func (c *Core) raise(bits uint32) {
	c.setBits(hw.REG_INTERRUPT_STATUS, bits, true)
}
