// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package hw defines the register map of the HDCP 1.x cipher core.
//
// Offsets are relative to the core base address, fields are described with
// reg.Field so that packed control registers are only ever modified through
// named accessors.
package hw

import (
	"github.com/usbarmory/hdcp1x-cipher/internal/reg"
)

// Register offsets
const (
	REG_VERSION          = 0x00 // core version (R)
	REG_TYPE             = 0x04 // protocol and direction (R)
	REG_SCRATCH          = 0x08 // scratch (RW)
	REG_CONTROL          = 0x0c // control (RW)
	REG_STATUS           = 0x10 // link status (R)
	REG_INTERRUPT_MASK   = 0x14 // interrupt mask, 1 = masked (RW)
	REG_INTERRUPT_STATUS = 0x18 // interrupt status (R/W1C)
	REG_ENCRYPT_ENABLE_H = 0x20 // stream encryption map, streams 63:32 (RW)
	REG_ENCRYPT_ENABLE_L = 0x24 // stream encryption map, streams 31:0 (RW)
	REG_KEYMGMT_CONTROL  = 0x2c // key management control (RW)
	REG_KEYMGMT_STATUS   = 0x30 // key management status (R)
	REG_KSV_LOCAL_H      = 0x38 // local KSV, bits 39:32 (R)
	REG_KSV_LOCAL_L      = 0x3c // local KSV, bits 31:0 (R)
	REG_KSV_REMOTE_H     = 0x40 // remote KSV, bits 39:32 (RW)
	REG_KSV_REMOTE_L     = 0x44 // remote KSV, bits 31:0 (RW)
	REG_KM_H             = 0x48 // Km, bits 55:32 (R)
	REG_KM_L             = 0x4c // Km, bits 31:0 (R)
	REG_CIPHER_CONTROL   = 0x50 // cipher control (RW)
	REG_CIPHER_STATUS    = 0x54 // cipher status (R)
	REG_CIPHER_BX        = 0x58 // B register, x (RW)
	REG_CIPHER_BY        = 0x5c // B register, y (RW)
	REG_CIPHER_BZ        = 0x60 // B register, z (RW)
	REG_CIPHER_KX        = 0x64 // K register, x (RW)
	REG_CIPHER_KY        = 0x68 // K register, y (RW)
	REG_CIPHER_KZ        = 0x6c // K register, z (RW)
	REG_CIPHER_MI_H      = 0x70 // Mi, bits 63:32 (R)
	REG_CIPHER_MI_L      = 0x74 // Mi, bits 31:0 (R)
	REG_CIPHER_RI        = 0x78 // Ri (R)
	REG_CIPHER_RO        = 0x7c // Ro (R)
	REG_CIPHER_MO_H      = 0x80 // Mo, bits 63:32 (R)
	REG_CIPHER_MO_L      = 0x84 // Mo, bits 31:0 (R)

	// REG_SIZE is the extent of the register block.
	REG_SIZE = 0x88
)

// REG_TYPE fields
var (
	TYPE_PROTOCOL  = reg.Bits(0, 2)
	TYPE_DIRECTION = reg.Bit(2)
)

// REG_TYPE values
const (
	TYPE_PROTOCOL_DP   = 0
	TYPE_PROTOCOL_HDMI = 1

	TYPE_DIRECTION_TX = 0
	TYPE_DIRECTION_RX = 1
)

// REG_VERSION fields
var (
	VERSION_MAJOR    = reg.Bits(24, 8)
	VERSION_MINOR    = reg.Bits(16, 8)
	VERSION_REVISION = reg.Bits(0, 16)
)

// REG_CONTROL fields
var (
	CONTROL_ENABLE    = reg.Bit(0)
	CONTROL_UPDATE    = reg.Bit(1)
	CONTROL_NUM_LANES = reg.Bits(4, 3)
	CONTROL_RESET     = reg.Bit(31)
)

// REG_STATUS, REG_INTERRUPT_MASK and REG_INTERRUPT_STATUS fields
var (
	STATUS_LINK_UP = reg.Bit(0)

	INTERRUPT_LINK_FAIL = reg.Bit(0)
	INTERRUPT_RI_UPDATE = reg.Bit(1)

	INTERRUPT_ALL = reg.Bits(0, 32)
)

// REG_KEYMGMT_CONTROL fields
var (
	KEYMGMT_CONTROL_LOCAL_KSV  = reg.Bit(0)
	KEYMGMT_CONTROL_BEGIN_KM   = reg.Bit(1)
	KEYMGMT_CONTROL_ABORT_KM   = reg.Bit(2)
	KEYMGMT_CONTROL_COMMAND    = reg.Bits(0, 4)
	KEYMGMT_CONTROL_SET_SELECT = reg.Bits(16, 3)
)

// REG_KEYMGMT_STATUS fields
var (
	KEYMGMT_STATUS_KSV_READY = reg.Bit(0)
	KEYMGMT_STATUS_KM_READY  = reg.Bit(1)
)

// KSV, B and K register fields
var (
	KSV_HIGH    = reg.Bits(0, 8)
	KM_HIGH     = reg.Bits(0, 24)
	CIPHER_WORD = reg.Bits(0, 28)
	CIPHER_R    = reg.Bits(0, 16)
)

// REG_CIPHER_CONTROL fields
var (
	CIPHER_CONTROL_XOR_ENABLE = reg.Bit(0)
	CIPHER_CONTROL_REQUEST    = reg.Bits(8, 3)
)

// REG_CIPHER_STATUS fields
var (
	CIPHER_STATUS_XOR_IN_PROGRESS     = reg.Bit(0)
	CIPHER_STATUS_REQUEST_IN_PROGRESS = reg.Bits(8, 3)
)

// Cipher request encodings, as bit index within CIPHER_CONTROL_REQUEST.
const (
	REQUEST_BLOCK = iota
	REQUEST_REKEYI
	REQUEST_RNG
	REQUEST_MAX
)

// Stream limits
const (
	MAX_LANES   = 4
	MAX_STREAMS = 64
	KEY_SELECTS = 8
)
