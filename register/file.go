package register

import "github.com/openhwgroup/force-riscv-sub004/forceerr"

// File is the catalog of Registers by name, built once from the (out of
// scope) XML catalog and consumed read-only by the solver core.
type File struct {
	byName map[string]*Register
	order  []string
}

// NewFile builds a File from a set of Registers, rejecting duplicate names.
func NewFile(regs ...*Register) (*File, error) {
	f := &File{byName: make(map[string]*Register, len(regs))}
	for _, r := range regs {
		if _, dup := f.byName[r.Name]; dup {
			return nil, forceerr.New(forceerr.ConstraintMalformed, "NewFile", "duplicate register name "+r.Name)
		}
		f.byName[r.Name] = r
		f.order = append(f.order, r.Name)
	}
	return f, nil
}

// Lookup returns the named Register, or an UnknownName error. UnknownName
// is not in forceerr's recoverable set; per spec §7 it bubbles up to the
// caller, which may log and skip the template item.
func (f *File) Lookup(name string) (*Register, error) {
	r, ok := f.byName[name]
	if !ok {
		return nil, forceerr.New(forceerr.UnknownName, "File.Lookup", "no such register: "+name)
	}
	return r, nil
}

// Names returns the registers in catalog (insertion) order.
func (f *File) Names() []string {
	return append([]string(nil), f.order...)
}
