package page

import (
	"math/rand/v2"
	"sort"

	"github.com/openhwgroup/force-riscv-sub004/choice"
	"github.com/openhwgroup/force-riscv-sub004/constraint"
	"github.com/openhwgroup/force-riscv-sub004/forceerr"
)

// Manager owns the physical page index for one memory bank: it allocates
// ranges, tracks per-attribute constraints, and implements aliasing
// (spec.md §4.2's PhysicalPageManager).
type Manager struct {
	usable   *constraint.Set
	free     *constraint.Set
	boundary *constraint.Set

	aliasExclude *constraint.Set
	attrRanges   map[uint64]*constraint.Set

	pages  []*PhysicalPage
	nextID uint64
}

// NewManager returns a Manager that has not yet been Initialise'd.
func NewManager() *Manager {
	return &Manager{
		free:         constraint.New(),
		usable:       constraint.New(),
		boundary:     constraint.New(),
		aliasExclude: constraint.New(),
		attrRanges:   make(map[uint64]*constraint.Set),
		nextID:       1,
	}
}

// Initialise must be called before any other operation. It records the
// usable address range and the boundary (the subset of usable that is
// additionally off-limits to fresh allocation, e.g. reserved for a linker
// script), and derives the initial free set as usable \ boundary.
func (m *Manager) Initialise(usable, boundary *constraint.Set) {
	m.usable = usable.Clone()
	m.boundary = boundary.Clone()
	m.free = usable.Clone()
	m.free.Subtract(boundary)
}

// SubFromBoundary carves cs out of the boundary and out of free, without
// touching usable. Recovered from the original source's boundary-shrink
// path (SPEC_FULL.md §5): it lets a caller reserve additional physical
// range after Initialise without restarting bookkeeping.
func (m *Manager) SubFromBoundary(cs *constraint.Set) {
	m.boundary.Subtract(cs)
	m.free.Subtract(cs)
}

// AddToBoundary returns cs to the boundary (removing it from free) — the
// inverse of SubFromBoundary.
func (m *Manager) AddToBoundary(cs *constraint.Set) {
	m.boundary.Merge(cs)
	m.free.Subtract(cs)
}

// Free returns the current free set. Callers must not mutate it.
func (m *Manager) Free() *constraint.Set { return m.free }

// Usable returns the initialisation usable set. Callers must not mutate it.
func (m *Manager) Usable() *constraint.Set { return m.usable }

// Pages returns the physical pages sorted by PALo. Callers must not mutate
// the slice or its elements.
func (m *Manager) Pages() []*PhysicalPage { return m.pages }

func (m *Manager) insertPage(p *PhysicalPage) {
	idx := sort.Search(len(m.pages), func(i int) bool { return m.pages[i].PALo >= p.PALo })
	m.pages = append(m.pages, nil)
	copy(m.pages[idx+1:], m.pages[idx:])
	m.pages[idx] = p
}

func (m *Manager) removePageAt(idx int) {
	m.pages = append(m.pages[:idx], m.pages[idx+1:]...)
}

// overlapping returns the indices of pages overlapping [lo, hi], in order.
func (m *Manager) overlapping(lo, hi uint64) []int {
	var idxs []int
	for i, p := range m.pages {
		if p.Overlaps(lo, hi) {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func memAttrOf(req *GenPageRequest, r *rand.Rand) (uint64, bool, error) {
	if req == nil || req.MemAttrImplConstraint == nil || req.MemAttrImplConstraint.IsEmpty() {
		return 0, false, nil
	}
	v, err := req.MemAttrImplConstraint.ChooseValue(r)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// attrsCompatible implements spec.md §4.2's rule: aliasing is allowed if
// either side carries no attribute, or both carry exactly one attribute
// and it is equal. More than one attribute on the allocator side is the
// caller's bug (checked by the caller via attrCount); more than one on the
// alias side means that page was forced into an invalid state and
// aliasing must be refused.
func attrsCompatible(a, b map[uint64]bool) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	if len(a) != 1 || len(b) != 1 {
		return false
	}
	for k := range a {
		return b[k]
	}
	return false
}

// NewAllocation chooses a PA range inside free memory, constructs a new
// PhysicalPage with a fresh ID, records its attributes, and returns it.
// Fails with PageAllocationFailed (recoverable) if no free range satisfies
// the alignment/size/PA constraints.
func (m *Manager) NewAllocation(r *rand.Rand, info SizeInfo, req *GenPageRequest) (*PhysicalPage, error) {
	if info.Size == 0 {
		return nil, forceerr.New(forceerr.PageAllocationFailed, "Manager.NewAllocation", "zero-size allocation request")
	}
	candidate := m.free.Clone()
	candidate.AlignWithSize(info.AlignMask, info.Size)
	if req != nil && req.PA != nil {
		candidate.Apply(mustSingleton(*req.PA))
	}
	if candidate.IsEmpty() {
		return nil, forceerr.New(forceerr.PageAllocationFailed, "Manager.NewAllocation", "no free range satisfies size/alignment/PA constraints")
	}
	paLo, err := candidate.ChooseValue(r)
	if err != nil {
		return nil, forceerr.Wrap(forceerr.PageAllocationFailed, "Manager.NewAllocation", "failed to sample a free base address", err)
	}
	paHi := paLo + info.Size - 1

	attrs := make(map[uint64]bool)
	if code, ok, err := memAttrOf(req, r); err != nil {
		return nil, err
	} else if ok {
		attrs[code] = true
	}

	p := &PhysicalPage{ID: m.nextID, PALo: paLo, PAHi: paHi, CanAlias: true, MemAttrs: attrs}
	m.nextID++
	m.free.SubRange(paLo, paHi) //nolint:errcheck // lo<=hi by construction
	m.insertPage(p)
	return p, nil
}

// AliasAllocation finds an existing PA target by one of four schemes
// (spec.md §4.2): FlatMap (PA == VA), the request's explicit PA field, its
// AliasPageID field, or constraint solving over the allocated-minus-excluded
// set. It then merges the candidate range into whichever existing pages it
// overlaps (or fails if attribute compatibility is violated).
func (m *Manager) AliasAllocation(r *rand.Rand, va uint64, info SizeInfo, req *GenPageRequest) (*PhysicalPage, error) {
	var paLo uint64
	switch {
	case req != nil && req.FlatMap:
		paLo = va
	case req != nil && req.PA != nil:
		paLo = *req.PA
	case req != nil && req.AliasPageID != nil:
		target := m.findByID(*req.AliasPageID)
		if target == nil {
			return nil, forceerr.New(forceerr.PageAllocationFailed, "Manager.AliasAllocation", "no physical page with requested AliasPageID")
		}
		paLo = target.PALo
	default:
		picked, err := m.solveAliasConstraints(r, info)
		if err != nil {
			return nil, err
		}
		paLo = picked
	}
	paHi := paLo + info.Size - 1

	forceAttrs := req != nil && req.ForceMemAttrs
	newAttrs := make(map[uint64]bool)
	if code, ok, err := memAttrOf(req, r); err != nil {
		return nil, err
	} else if ok {
		newAttrs[code] = true
	}

	idxs := m.overlapping(paLo, paHi)
	if len(idxs) == 0 {
		return nil, forceerr.New(forceerr.PageAllocationFailed, "Manager.AliasAllocation", "no existing physical page overlaps the alias target")
	}

	flatMap := req != nil && req.FlatMap

	// Single overlap, new range fully contained in the existing page: the
	// original source leaves the existing page in place and hands the
	// caller its PageId back instead of minting a new one, so a caller
	// already holding that ID (e.g. a committed Page.PhysPageID) is not
	// orphaned (original_source/base/src/PhysicalPageManager.cc's
	// single-overlap "not merged" branch).
	if len(idxs) == 1 {
		existing := m.pages[idxs[0]]
		if !existing.CanAlias && !flatMap {
			return nil, forceerr.New(forceerr.PageAllocationFailed, "Manager.AliasAllocation", "target physical page has CanAlias=false")
		}
		if !forceAttrs && !attrsCompatible(newAttrs, existing.MemAttrs) {
			return nil, forceerr.New(forceerr.PageAllocationFailed, "Manager.AliasAllocation", "incompatible memory attributes between alias and target")
		}
		if paLo >= existing.PALo && paHi <= existing.PAHi {
			return existing, nil
		}
	}

	merged := &PhysicalPage{ID: m.nextID, PALo: paLo, PAHi: paHi, CanAlias: true, MemAttrs: copyAttrs(newAttrs)}
	for _, idx := range idxs {
		existing := m.pages[idx]
		if len(idxs) > 1 {
			if !existing.CanAlias && !flatMap {
				return nil, forceerr.New(forceerr.PageAllocationFailed, "Manager.AliasAllocation", "target physical page has CanAlias=false")
			}
			if !forceAttrs && !attrsCompatible(merged.MemAttrs, existing.MemAttrs) {
				return nil, forceerr.New(forceerr.PageAllocationFailed, "Manager.AliasAllocation", "incompatible memory attributes between alias and target")
			}
		}
		if existing.PALo < merged.PALo {
			merged.PALo = existing.PALo
		}
		if existing.PAHi > merged.PAHi {
			merged.PAHi = existing.PAHi
		}
		for code := range existing.MemAttrs {
			merged.MemAttrs[code] = true
		}
		merged.VirtualAliases = append(merged.VirtualAliases, existing.VirtualAliases...)
	}
	m.nextID++

	// Replace every overlapped page with the single merged page.
	for i := len(idxs) - 1; i >= 0; i-- {
		m.removePageAt(idxs[i])
	}
	m.insertPage(merged)
	return merged, nil
}

func copyAttrs(a map[uint64]bool) map[uint64]bool {
	out := make(map[uint64]bool, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

func (m *Manager) findByID(id uint64) *PhysicalPage {
	for _, p := range m.pages {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// solveAliasConstraints forms allocated \ alias_exclude, keeps the points
// that satisfy info's size/alignment, and chooses one of them. It does not
// subtract any attribute ranges: memory-attribute compatibility is checked
// only afterwards, by AliasAllocation, against the pages the pick overlaps.
func (m *Manager) solveAliasConstraints(r *rand.Rand, info SizeInfo) (uint64, error) {
	allocated := m.usable.Clone()
	allocated.Subtract(m.free)
	allocated.Subtract(m.aliasExclude)
	allocated.AlignWithSize(info.AlignMask, info.Size)
	if allocated.IsEmpty() {
		return 0, forceerr.New(forceerr.PageAllocationFailed, "Manager.solveAliasConstraints", "no allocated range is available for aliasing")
	}
	return allocated.ChooseValue(r)
}

// CommitPage links a virtual Page to its PhysicalPage, recording the alias
// and, on first commit, publishing the physical page's attribute ranges
// into the per-attribute range index (attrRanges). Nothing in this package
// reads that index; solveAliasConstraints does not consult it.
func (m *Manager) CommitPage(v Page) error {
	phys := m.findByID(v.PhysPageID)
	if phys == nil {
		return forceerr.New(forceerr.InvariantViolation, "Manager.CommitPage", "page references an unknown physical page id")
	}
	first := len(phys.VirtualAliases) == 0
	phys.VirtualAliases = append(phys.VirtualAliases, AliasRef{SpaceID: v.SpaceID, VALo: v.VALo})
	if first {
		for code := range phys.MemAttrs {
			rng, ok := m.attrRanges[code]
			if !ok {
				rng = constraint.New()
				m.attrRanges[code] = rng
			}
			rng.AddRange(phys.PALo, phys.PAHi) //nolint:errcheck // PALo<=PAHi by construction
		}
	}
	return nil
}

// AllocatePage is the entry point (spec.md §4.2): if ForceAlias, alias
// only; otherwise consult the aliasing-order choice tree to decide which
// of NewAllocation/AliasAllocation to try first, falling back to the
// other on failure.
func (m *Manager) AllocatePage(r *rand.Rand, va uint64, info SizeInfo, req *GenPageRequest, aliasOrder *choice.Tree) (*PhysicalPage, error) {
	if req != nil && req.ForceAlias {
		return m.AliasAllocation(r, va, info, req)
	}
	tryAliasFirst := req != nil && req.CanAlias
	if aliasOrder != nil {
		v, err := aliasOrder.Choose(r)
		if err == nil {
			tryAliasFirst = v != 0
		}
	}
	if tryAliasFirst {
		if p, err := m.AliasAllocation(r, va, info, req); err == nil {
			return p, nil
		}
		return m.NewAllocation(r, info, req)
	}
	if p, err := m.NewAllocation(r, info, req); err == nil {
		return p, nil
	}
	return m.AliasAllocation(r, va, info, req)
}

func mustSingleton(v uint64) *constraint.Set {
	s := constraint.New()
	s.AddValue(v)
	return s
}
