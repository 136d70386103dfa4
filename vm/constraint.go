// Package vm implements the virtual-memory mapping layer spec.md §4.3
// describes: VmAddressSpace (one paging context's page index), VmMapper
// (direct or paged address translation), and AddressFilteringRegulator
// (the VM-constraint vector a page request must satisfy).
package vm

import "github.com/openhwgroup/force-riscv-sub004/constraint"

// Kind names why a VmConstraint exists, mirroring the tags spec.md §4.3
// lists for the regulator's output vector.
type Kind uint8

const (
	Unmapped Kind = iota
	AddressError
	PrivilegedPage
	FlatMap
	UserAccess
	NoDataAbort
	NoInstrPageFault
	NoDataPageFault
)

func (k Kind) String() string {
	switch k {
	case Unmapped:
		return "Unmapped"
	case AddressError:
		return "AddressError"
	case PrivilegedPage:
		return "PrivilegedPage"
	case FlatMap:
		return "FlatMap"
	case UserAccess:
		return "UserAccess"
	case NoDataAbort:
		return "NoDataAbort"
	case NoInstrPageFault:
		return "NoInstrPageFault"
	case NoDataPageFault:
		return "NoDataPageFault"
	default:
		return "Unknown"
	}
}

// Constraint is one entry of the VM-constraint vector the
// AddressFilteringRegulator builds for a page request: either the
// candidate address must lie inside Set ("In"), or it must lie outside it
// ("NotIn").
type Constraint struct {
	Kind Kind
	Set  *constraint.Set
	In   bool // true: address must lie inside Set. false: must lie outside.
}

// ApplyOn shrinks target to satisfy this one constraint.
func (c Constraint) ApplyOn(target *constraint.Set) {
	if c.In {
		target.Apply(c.Set)
	} else {
		target.Subtract(c.Set)
	}
}

// Allows is the pointwise form of ApplyOn.
func (c Constraint) Allows(v uint64) bool {
	if c.In {
		return c.Set.ContainsValue(v)
	}
	return !c.Set.ContainsValue(v)
}

// Vector is an ordered list of Constraints, applied left to right.
type Vector []Constraint

// ApplyOn shrinks target by every constraint in the vector in order.
func (vec Vector) ApplyOn(target *constraint.Set) {
	for _, c := range vec {
		c.ApplyOn(target)
	}
}

// Allows reports whether v satisfies every constraint in the vector.
func (vec Vector) Allows(v uint64) bool {
	for _, c := range vec {
		if !c.Allows(v) {
			return false
		}
	}
	return true
}
