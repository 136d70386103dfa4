package vm

import (
	"math/rand/v2"
	"sync/atomic"

	"github.com/openhwgroup/force-riscv-sub004/constraint"
	"github.com/openhwgroup/force-riscv-sub004/forceerr"
	"github.com/openhwgroup/force-riscv-sub004/page"
)

// TranslateResult is the outcome of one VA->PA translation attempt.
type TranslateResult uint8

const (
	Mapped TranslateResult = iota
	AddressErrorResult
	NotMapped
)

// RegisterReloadPlan is the register values needed to activate one
// address space (spec.md §4.3's get_register_reload): e.g. the paging
// control register value (satp) that selects this context.
type RegisterReloadPlan struct {
	Registers map[string]uint64
}

// Mapper is the shape VmMapper exposes (spec.md §4.3): either Direct (no
// paging, a single flat physical range) or Paged (one VmAddressSpace per
// distinct paging context). Both implementations share this interface so
// the solver core never branches on which shape is active.
type Mapper interface {
	TranslateVAToPA(va uint64, isInstr bool) (pa uint64, bank page.BankType, result TranslateResult)
	MapAddressRange(r *rand.Rand, va, size uint64, isInstr bool, req *page.GenPageRequest) error
	MapAddressRangeForPA(r *rand.Rand, pa uint64, bank page.BankType, size uint64, isInstr bool, req *page.GenPageRequest) (uint64, error)
	VirtualUsableConstraint(isInstr bool) *constraint.Set
	ApplyVirtualUsableConstraint(isInstr bool, reuseFilter func(uint64) bool, out *constraint.Set)
	VerifyVirtualAddress(va, size uint64, isInstr bool, req *page.GenPageRequest) bool
	GetRegisterReload() RegisterReloadPlan
	Timestamp() uint64
}

// PagedMapper holds one VmAddressSpace per paging context, switching
// between them as the active paging-control-register hash changes.
type PagedMapper struct {
	spaces        map[string]*AddressSpace
	current       *AddressSpace
	timestamp     atomic.Uint64
	reg           Regulator
	pageAlignMask uint64
}

// NewPagedMapper returns an empty PagedMapper with no current context.
// pageAlignMask is the alignment mask applied to every mapping request
// (typically the page-size-minus-one complement, e.g. ^uint64(0xFFF) for
// 4KiB pages); the Mapper interface's map calls take only a size, so
// granularity is fixed per mapper instance rather than per call.
func NewPagedMapper(pageAlignMask uint64) *PagedMapper {
	return &PagedMapper{spaces: make(map[string]*AddressSpace), pageAlignMask: pageAlignMask}
}

// EnsureContext returns the AddressSpace for contextID, constructing one
// from the supplied initial state if it does not already exist, and makes
// it the current context (spec.md §4.3: "locate an already-built space
// matching the new context, or creates one on demand").
func (m *PagedMapper) EnsureContext(contextID string, build func() *AddressSpace) *AddressSpace {
	space, ok := m.spaces[contextID]
	if !ok {
		space = build()
		space.ContextID = contextID
		m.spaces[contextID] = space
	}
	m.current = space
	return space
}

// Timestamp returns the monotonic counter bumped every time a mapping
// operation creates new pages (spec.md §4.5's vm_timestamp mechanism).
func (m *PagedMapper) Timestamp() uint64 { return m.timestamp.Load() }

func (m *PagedMapper) TranslateVAToPA(va uint64, isInstr bool) (uint64, page.BankType, TranslateResult) {
	if m.current == nil {
		return 0, page.BankDefault, NotMapped
	}
	if m.current.addressError.ContainsValue(va) {
		return 0, page.BankDefault, AddressErrorResult
	}
	committed, ok := m.current.findPage(va)
	if !ok {
		return 0, page.BankDefault, NotMapped
	}
	phys := m.physicalPageOf(committed)
	if phys == nil {
		return 0, page.BankDefault, NotMapped
	}
	pa := phys.PALo + (va - committed.VALo)
	return pa, committed.Bank, Mapped
}

func (m *PagedMapper) physicalPageOf(v page.Page) *page.PhysicalPage {
	for _, p := range m.current.mgr.Pages() {
		if p.ID == v.PhysPageID {
			return p
		}
	}
	return nil
}

func (m *PagedMapper) MapAddressRange(r *rand.Rand, va, size uint64, isInstr bool, req *page.GenPageRequest) error {
	if m.current == nil {
		return forceerr.New(forceerr.VmContextInvalid, "PagedMapper.MapAddressRange", "no current address space")
	}
	space := m.current
	if va == 0 {
		strategy := page.SelectStrategy(req)
		picked, err := strategy.ChooseVA(r, space.usableVA[isInstr], page.SizeInfo{Size: size, AlignMask: m.pageAlignMask}, req)
		if err != nil {
			return err
		}
		va = picked
	}
	info := page.SizeInfo{Size: size, AlignMask: m.pageAlignMask}
	phys, err := space.mgr.AllocatePage(r, va, info, req, nil)
	if err != nil {
		return err
	}
	v := page.Page{VALo: va, VAHi: va + size - 1, Bank: bankOf(req), SpaceID: space.ContextID, PhysPageID: phys.ID}
	if err := space.mgr.CommitPage(v); err != nil {
		return err
	}
	space.insertPage(v)
	space.markMapped(isInstr, v.VALo, v.VAHi)
	m.timestamp.Add(1)
	return nil
}

func (m *PagedMapper) MapAddressRangeForPA(r *rand.Rand, pa uint64, bank page.BankType, size uint64, isInstr bool, req *page.GenPageRequest) (uint64, error) {
	if m.current == nil {
		return 0, forceerr.New(forceerr.VmContextInvalid, "PagedMapper.MapAddressRangeForPA", "no current address space")
	}
	space := m.current
	va, err := (page.RandomMappingStrategy{}).ChooseVA(r, space.usableVA[isInstr], page.SizeInfo{Size: size, AlignMask: m.pageAlignMask}, req)
	if err != nil {
		return 0, err
	}
	forced := *req
	forced.PA = &pa
	phys, err := space.mgr.AliasAllocation(r, va, page.SizeInfo{Size: size, AlignMask: m.pageAlignMask}, &forced)
	if err != nil {
		return 0, err
	}
	v := page.Page{VALo: va, VAHi: va + size - 1, Bank: bank, SpaceID: space.ContextID, PhysPageID: phys.ID}
	if err := space.mgr.CommitPage(v); err != nil {
		return 0, err
	}
	space.insertPage(v)
	space.markMapped(isInstr, v.VALo, v.VAHi)
	m.timestamp.Add(1)
	return va, nil
}

func (m *PagedMapper) VirtualUsableConstraint(isInstr bool) *constraint.Set {
	if m.current == nil {
		return constraint.New()
	}
	return m.current.usableVA[isInstr]
}

func (m *PagedMapper) ApplyVirtualUsableConstraint(isInstr bool, reuseFilter func(uint64) bool, out *constraint.Set) {
	if m.current == nil {
		out.Apply(constraint.New())
		return
	}
	out.Apply(m.current.usableVA[isInstr])
	if reuseFilter == nil {
		return
	}
	var drop []constraint.Interval
	for _, iv := range out.Intervals() {
		for v := iv.Lo; v <= iv.Hi; v++ {
			if !reuseFilter(v) {
				drop = append(drop, constraint.Interval{Lo: v, Hi: v})
			}
			if v == iv.Hi {
				break
			}
		}
	}
	for _, d := range drop {
		out.SubRange(d.Lo, d.Hi) //nolint:errcheck
	}
}

func (m *PagedMapper) VerifyVirtualAddress(va, size uint64, isInstr bool, req *page.GenPageRequest) bool {
	if m.current == nil {
		return false
	}
	vec := m.reg.Build(m.current, isInstr, req)
	window, err := constraint.FromRanges([2]uint64{va, va + size - 1})
	if err != nil {
		return false
	}
	vec.ApplyOn(window)
	return window.ContainsRange(va, va+size-1)
}

func (m *PagedMapper) GetRegisterReload() RegisterReloadPlan {
	if m.current == nil {
		return RegisterReloadPlan{Registers: map[string]uint64{}}
	}
	return RegisterReloadPlan{Registers: map[string]uint64{"satp": contextHash(m.current.ContextID)}}
}

func bankOf(req *page.GenPageRequest) page.BankType {
	if req == nil {
		return page.BankDefault
	}
	return req.Bank
}

func contextHash(id string) uint64 {
	var h uint64 = 1469598103934665603
	for _, c := range id {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return h
}
