package vm

import "github.com/openhwgroup/force-riscv-sub004/page"

// Regulator builds the VM-constraint vector for a given page request
// (spec.md §4.3's AddressFilteringRegulator): a request's boolean flags and
// the owning address space's mapped/unmapped/privileged ranges combine
// into an ordered list of In/NotIn constraints a candidate address must
// satisfy.
type Regulator struct{}

// Build returns the constraint vector for one access. isInstr selects the
// instruction-side usable set; req carries the per-request overrides.
func (Regulator) Build(space *AddressSpace, isInstr bool, req *page.GenPageRequest) Vector {
	var vec Vector

	vec = append(vec, Constraint{Kind: AddressError, Set: space.addressError, In: false})

	if req != nil && req.Privilege == page.PrivilegeUser {
		vec = append(vec, Constraint{Kind: PrivilegedPage, Set: space.privileged, In: false})
	}

	if req != nil && req.FlatMap {
		vec = append(vec, Constraint{Kind: FlatMap, Set: space.usableVA[isInstr], In: true})
	}

	if req != nil && req.Privilege == page.PrivilegeUser {
		vec = append(vec, Constraint{Kind: UserAccess, Set: space.privileged, In: false})
	}

	if req != nil && req.NoDataAbort && !isInstr {
		vec = append(vec, Constraint{Kind: NoDataAbort, Set: space.addressError, In: false})
	}
	if req != nil && req.NoInstrPageFault && isInstr {
		vec = append(vec, Constraint{Kind: NoInstrPageFault, Set: space.unmapped, In: false})
	}
	if req != nil && req.NoDataPageFault && !isInstr {
		vec = append(vec, Constraint{Kind: NoDataPageFault, Set: space.unmapped, In: false})
	}

	return vec
}
