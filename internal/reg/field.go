// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package reg

import (
	"github.com/usbarmory/tamago/bits"
)

// Field describes a packed bit field within a 32-bit register, Mask is right
// aligned (e.g. 0b111 for a 3-bit field).
type Field struct {
	Pos  int
	Mask int
}

// Bit returns a single bit field at position pos.
func Bit(pos int) Field {
	return Field{Pos: pos, Mask: 1}
}

// Bits returns a field of width bits starting at position pos.
func Bits(pos int, width int) Field {
	if width <= 0 || pos+width > 32 {
		panic("reg: invalid field width")
	}

	return Field{Pos: pos, Mask: int(uint32(1<<width - 1))}
}

// Value returns the field mask in register position.
func (f Field) Value() uint32 {
	return uint32(f.Mask) << f.Pos
}

// Get extracts the field from val.
func (f Field) Get(val uint32) uint32 {
	return bits.Get(&val, f.Pos, f.Mask)
}

// IsSet returns whether any field bit is set in val.
func (f Field) IsSet(val uint32) bool {
	return f.Get(val) != 0
}

// Put stores n in the field of *val, excess bits of n are discarded.
func (f Field) Put(val *uint32, n uint32) {
	bits.SetN(val, f.Pos, f.Mask, n&uint32(f.Mask))
}

// Fill sets all field bits in *val.
func (f Field) Fill(val *uint32) {
	f.Put(val, uint32(f.Mask))
}

// Clear clears all field bits in *val.
func (f Field) Clear(val *uint32) {
	bits.SetN(val, f.Pos, f.Mask, 0)
}
