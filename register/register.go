package register

import "github.com/openhwgroup/force-riscv-sub004/forceerr"

// Register is a logical architectural register: a composition of named
// fields, and (for simple registers with a single field covering the
// whole width) a convenience full-value Read/Write.
type Register struct {
	Name    string
	Fields  []*RegisterField
	byName  map[string]*RegisterField
	// Primary is the field used by Read/Write when the register is a
	// single logical value rather than a named bag of fields (e.g. a GPR
	// as opposed to a status register with Flags/Mode/... sub-fields).
	Primary *RegisterField
}

// NewRegister composes a Register from its fields. If exactly one field is
// given, it becomes Primary automatically.
func NewRegister(name string, fields ...*RegisterField) (*Register, error) {
	if len(fields) == 0 {
		return nil, forceerr.New(forceerr.ConstraintMalformed, "NewRegister", "register "+name+" has no fields")
	}
	byName := make(map[string]*RegisterField, len(fields))
	for _, f := range fields {
		if _, dup := byName[f.Name]; dup {
			return nil, forceerr.New(forceerr.ConstraintMalformed, "NewRegister", "register "+name+" has duplicate field "+f.Name)
		}
		byName[f.Name] = f
	}
	r := &Register{Name: name, Fields: append([]*RegisterField(nil), fields...), byName: byName}
	if len(fields) == 1 {
		r.Primary = fields[0]
	}
	return r, nil
}

// Field looks up a named sub-field.
func (r *Register) Field(name string) (*RegisterField, error) {
	f, ok := r.byName[name]
	if !ok {
		return nil, forceerr.New(forceerr.UnknownName, "Register.Field", "register "+r.Name+" has no field "+name)
	}
	return f, nil
}

// Read returns the Primary field's value. Fails with UnknownName if the
// register has no single primary field (it is a multi-field bag and the
// caller must address a specific Field).
func (r *Register) Read() (uint64, error) {
	if r.Primary == nil {
		return 0, forceerr.New(forceerr.UnknownName, "Register.Read", "register "+r.Name+" has no primary field; use Field(name)")
	}
	return r.Primary.Read(), nil
}

// Write sets the Primary field's value.
func (r *Register) Write(value uint64) error {
	if r.Primary == nil {
		return forceerr.New(forceerr.UnknownName, "Register.Write", "register "+r.Name+" has no primary field; use Field(name)")
	}
	r.Primary.Write(value)
	return nil
}

// Initialized reports whether the Primary field is fully initialized.
func (r *Register) Initialized() bool {
	if r.Primary == nil {
		return false
	}
	return r.Primary.Initialized()
}
