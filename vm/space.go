package vm

import (
	"sort"

	"github.com/openhwgroup/force-riscv-sub004/constraint"
	"github.com/openhwgroup/force-riscv-sub004/page"
)

// AddressSpace is one paging context: a context ID (spec.md §4.3 derives it
// from a hash of the paging-control registers, e.g. satp), the physical
// page manager backing it, the current usable virtual-address constraints
// for instruction and data accesses, and the set of committed virtual
// pages (kept sorted by VALo for binary-search lookup in TranslateVAToPA).
type AddressSpace struct {
	ContextID string

	mgr *page.Manager

	usableVA     map[bool]*constraint.Set // keyed by isInstr
	unmapped     *constraint.Set
	addressError *constraint.Set
	privileged   *constraint.Set

	pages []page.Page
}

// NewAddressSpace constructs a space and its backing physical manager.
func NewAddressSpace(contextID string, usableInstrVA, usableDataVA, unmapped, addressError, privileged *constraint.Set, usablePA, boundaryPA *constraint.Set) *AddressSpace {
	mgr := page.NewManager()
	mgr.Initialise(usablePA, boundaryPA)
	return &AddressSpace{
		ContextID:    contextID,
		mgr:          mgr,
		usableVA:     map[bool]*constraint.Set{true: usableInstrVA.Clone(), false: usableDataVA.Clone()},
		unmapped:     unmapped.Clone(),
		addressError: addressError.Clone(),
		privileged:   privileged.Clone(),
	}
}

// Manager returns the space's physical page manager.
func (s *AddressSpace) Manager() *page.Manager { return s.mgr }

// UsableVA returns the current usable VA constraint for the given side.
// Callers must not mutate the returned set.
func (s *AddressSpace) UsableVA(isInstr bool) *constraint.Set { return s.usableVA[isInstr] }

func (s *AddressSpace) insertPage(p page.Page) {
	idx := sort.Search(len(s.pages), func(i int) bool { return s.pages[i].VALo >= p.VALo })
	s.pages = append(s.pages, page.Page{})
	copy(s.pages[idx+1:], s.pages[idx:])
	s.pages[idx] = p
}

// findPage returns the committed page containing va, if any.
func (s *AddressSpace) findPage(va uint64) (page.Page, bool) {
	idx := sort.Search(len(s.pages), func(i int) bool { return s.pages[i].VAHi >= va })
	if idx < len(s.pages) && s.pages[idx].VALo <= va && va <= s.pages[idx].VAHi {
		return s.pages[idx], true
	}
	return page.Page{}, false
}

// markMapped records [vaLo, vaHi] as no longer "unmapped" and removes it
// from the corresponding usable-free set, since it is now occupied.
func (s *AddressSpace) markMapped(isInstr bool, vaLo, vaHi uint64) {
	s.unmapped.SubRange(vaLo, vaHi) //nolint:errcheck // vaLo<=vaHi by construction
	s.usableVA[isInstr].SubRange(vaLo, vaHi) //nolint:errcheck
}
