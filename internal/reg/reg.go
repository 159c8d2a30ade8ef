// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package reg provides primitive 32-bit register access for memory mapped
// devices along with helpers for packed bit fields.
//
// Each access is a single bus transaction, sequences of accesses are not
// atomic and callers must serialize read-modify-write cycles themselves.
package reg

// Bus represents a 32-bit register access backend, addresses are absolute
// (base address plus register offset).
type Bus interface {
	Read32(addr uintptr) uint32
	Write32(addr uintptr, val uint32)
}

// Block represents a register block mapped at a fixed base address.
type Block struct {
	Bus  Bus
	Base uintptr
}

// Read returns the register at offset off.
func (b Block) Read(off uint32) uint32 {
	return b.Bus.Read32(b.Base + uintptr(off))
}

// Write sets the register at offset off.
func (b Block) Write(off uint32, val uint32) {
	b.Bus.Write32(b.Base+uintptr(off), val)
}

// Get returns a field of the register at offset off.
func (b Block) Get(off uint32, f Field) uint32 {
	return f.Get(b.Read(off))
}

// IsSet returns whether a field of the register at offset off has any bit
// set.
func (b Block) IsSet(off uint32, f Field) bool {
	return f.IsSet(b.Read(off))
}

// Set performs a read-modify-write setting all bits of field f.
func (b Block) Set(off uint32, f Field) {
	val := b.Read(off)
	f.Fill(&val)
	b.Write(off, val)
}

// Clear performs a read-modify-write clearing all bits of field f.
func (b Block) Clear(off uint32, f Field) {
	val := b.Read(off)
	f.Clear(&val)
	b.Write(off, val)
}

// SetTo performs a read-modify-write filling or clearing field f.
func (b Block) SetTo(off uint32, f Field, on bool) {
	if on {
		b.Set(off, f)
	} else {
		b.Clear(off, f)
	}
}

// SetN performs a read-modify-write storing val in field f.
func (b Block) SetN(off uint32, f Field, val uint32) {
	reg := b.Read(off)
	f.Put(&reg, val)
	b.Write(off, reg)
}

// Pulse sets and then clears field f with a single read, the register is
// left with the field cleared.
func (b Block) Pulse(off uint32, f Field) {
	val := b.Read(off)

	f.Fill(&val)
	b.Write(off, val)

	f.Clear(&val)
	b.Write(off, val)
}
