package register

import "github.com/openhwgroup/force-riscv-sub004/forceerr"

// BitSlice names a contiguous run of bits [Lo, Hi] (inclusive) within one
// PhysicalRegister. A RegisterField's Slices are concatenated LSB-first
// from the field's point of view: Slices[0] supplies the field's least
// significant bits, even when the underlying physical bits are scattered.
type BitSlice struct {
	Reg *PhysicalRegister
	Lo  uint8
	Hi  uint8
}

func (s BitSlice) width() uint8 { return s.Hi - s.Lo + 1 }

// RegisterField is a named logical value assembled from one or more
// BitSlices, each possibly in a different PhysicalRegister.
type RegisterField struct {
	Name   string
	Slices []BitSlice
}

// NewRegisterField validates that Slices is non-empty and every slice is
// well-formed (Lo <= Hi).
func NewRegisterField(name string, slices ...BitSlice) (*RegisterField, error) {
	if len(slices) == 0 {
		return nil, forceerr.New(forceerr.ConstraintMalformed, "NewRegisterField", "field "+name+" has no bit-slices")
	}
	for _, s := range slices {
		if s.Lo > s.Hi {
			return nil, forceerr.New(forceerr.ConstraintMalformed, "NewRegisterField", "field "+name+" has a slice with lo > hi")
		}
	}
	return &RegisterField{Name: name, Slices: append([]BitSlice(nil), slices...)}, nil
}

// Width returns the field's total bit width, the sum of its slices' widths.
func (f *RegisterField) Width() uint8 {
	var w uint8
	for _, s := range f.Slices {
		w += s.width()
	}
	return w
}

// Read assembles the field's value by reading each slice (LSB-first) and
// packing them into a single right-justified value. Panics (via the
// underlying PhysicalRegister) if any contributing bit is uninitialized.
func (f *RegisterField) Read() uint64 {
	var value uint64
	var shift uint8
	for _, s := range f.Slices {
		v := s.Reg.Read(s.Lo, s.Hi)
		value |= v << shift
		shift += s.width()
	}
	return value
}

// Write distributes value's bits (LSB-first) across the field's slices and
// marks each contributing physical bit initialized.
func (f *RegisterField) Write(value uint64) {
	var shift uint8
	for _, s := range f.Slices {
		w := s.width()
		mask := widthMask(w)
		s.Reg.Write(s.Lo, s.Hi, (value>>shift)&mask)
		shift += w
	}
}

// Initialized reports whether every slice backing the field has been
// written.
func (f *RegisterField) Initialized() bool {
	for _, s := range f.Slices {
		if !s.Reg.Initialized(s.Lo, s.Hi) {
			return false
		}
	}
	return true
}
