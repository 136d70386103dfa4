// Package register implements the logical/physical register model spec.md's
// data model describes: a PhysicalRegister is raw storage with a per-bit
// initialized mask; a RegisterField is a list of bit-slices (possibly
// scattered across one or more physical registers) that resolve to a
// single contiguous logical value; a Register composes named fields; a
// RegisterFile is the catalog of Registers by name.
package register

import "github.com/openhwgroup/force-riscv-sub004/forceerr"

// PhysicalRegister is raw bit storage for one architectural register
// (up to 64 bits per word; vector registers compose several words via
// multiple PhysicalRegisters, one per 64-bit lane, referenced by separate
// BitSlices). Every bit of Value has a corresponding bit in Mask: 1 means
// the bit has been written at least once.
type PhysicalRegister struct {
	Name  string
	Bits  uint8 // width in bits, 1-64
	value uint64
	mask  uint64
}

// NewPhysicalRegister returns a zero-valued, fully-uninitialized register
// of the given bit width.
func NewPhysicalRegister(name string, bits uint8) *PhysicalRegister {
	return &PhysicalRegister{Name: name, Bits: bits}
}

func widthMask(bits uint8) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bits) - 1
}

// Write stores value into [lo, hi] (inclusive, 0-indexed from the LSB) and
// marks those bits initialized.
func (p *PhysicalRegister) Write(lo, hi uint8, value uint64) {
	width := hi - lo + 1
	sliceMask := widthMask(width) << lo
	p.value = (p.value &^ sliceMask) | ((value << lo) & sliceMask)
	p.mask |= sliceMask
}

// Read returns bits [lo, hi] right-justified to bit 0. It panics with an
// InvariantViolation if any bit in the range has never been written: the
// data model specifies a trap on uninitialized read rather than silently
// returning garbage.
func (p *PhysicalRegister) Read(lo, hi uint8) uint64 {
	width := hi - lo + 1
	sliceMask := widthMask(width) << lo
	if p.mask&sliceMask != sliceMask {
		forceerr.Panic(forceerr.InvariantViolation, "PhysicalRegister.Read", "uninitialized read of "+p.Name)
	}
	return (p.value & sliceMask) >> lo
}

// Initialized reports whether every bit in [lo, hi] has been written.
func (p *PhysicalRegister) Initialized(lo, hi uint8) bool {
	width := hi - lo + 1
	sliceMask := widthMask(width) << lo
	return p.mask&sliceMask == sliceMask
}

// RawValue and RawMask expose the full word for callers (the ISS bridge,
// debug dumps) that need it without going through a BitSlice.
func (p *PhysicalRegister) RawValue() uint64 { return p.value }
func (p *PhysicalRegister) RawMask() uint64  { return p.mask }

// SetRaw overwrites the whole word and marks every bit initialized; used
// by the ISS adapter when applying a register_updates callback payload.
func (p *PhysicalRegister) SetRaw(value uint64) {
	p.value = value & widthMask(p.Bits)
	p.mask = widthMask(p.Bits)
}
