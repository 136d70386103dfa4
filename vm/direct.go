package vm

import (
	"math/rand/v2"
	"sync/atomic"

	"github.com/openhwgroup/force-riscv-sub004/constraint"
	"github.com/openhwgroup/force-riscv-sub004/forceerr"
	"github.com/openhwgroup/force-riscv-sub004/page"
)

// DirectMapper is the unpaged VmMapper shape (spec.md §4.3): VA and PA
// coincide, there is no context switching, and "mapping" a range only
// means recording it as occupied within the single usable set.
type DirectMapper struct {
	usable    map[bool]*constraint.Set
	free      map[bool]*constraint.Set
	timestamp atomic.Uint64
}

// NewDirectMapper builds a DirectMapper with the given instruction- and
// data-side usable address ranges.
func NewDirectMapper(usableInstr, usableData *constraint.Set) *DirectMapper {
	return &DirectMapper{
		usable: map[bool]*constraint.Set{true: usableInstr.Clone(), false: usableData.Clone()},
		free:   map[bool]*constraint.Set{true: usableInstr.Clone(), false: usableData.Clone()},
	}
}

func (m *DirectMapper) Timestamp() uint64 { return m.timestamp.Load() }

func (m *DirectMapper) TranslateVAToPA(va uint64, isInstr bool) (uint64, page.BankType, TranslateResult) {
	if !m.usable[isInstr].ContainsValue(va) {
		return 0, page.BankDefault, NotMapped
	}
	return va, page.BankDefault, Mapped
}

func (m *DirectMapper) MapAddressRange(r *rand.Rand, va, size uint64, isInstr bool, req *page.GenPageRequest) error {
	if va == 0 {
		candidate := m.free[isInstr].Clone()
		picked, err := candidate.ChooseValue(r)
		if err != nil {
			return forceerr.Wrap(forceerr.PageAllocationFailed, "DirectMapper.MapAddressRange", "no free direct-mapped range available", err)
		}
		va = picked
	}
	if !m.free[isInstr].ContainsRange(va, va+size-1) {
		return forceerr.New(forceerr.PageAllocationFailed, "DirectMapper.MapAddressRange", "requested direct-mapped range is not free")
	}
	m.free[isInstr].SubRange(va, va+size-1) //nolint:errcheck
	m.timestamp.Add(1)
	return nil
}

func (m *DirectMapper) MapAddressRangeForPA(r *rand.Rand, pa uint64, _ page.BankType, size uint64, isInstr bool, req *page.GenPageRequest) (uint64, error) {
	if err := m.MapAddressRange(r, pa, size, isInstr, req); err != nil {
		return 0, err
	}
	return pa, nil
}

func (m *DirectMapper) VirtualUsableConstraint(isInstr bool) *constraint.Set {
	return m.free[isInstr]
}

func (m *DirectMapper) ApplyVirtualUsableConstraint(isInstr bool, reuseFilter func(uint64) bool, out *constraint.Set) {
	out.Apply(m.free[isInstr])
	if reuseFilter == nil {
		return
	}
	var drop []constraint.Interval
	for _, iv := range out.Intervals() {
		for v := iv.Lo; ; v++ {
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

func (m *DirectMapper) VerifyVirtualAddress(va, size uint64, isInstr bool, _ *page.GenPageRequest) bool {
	return m.usable[isInstr].ContainsRange(va, va+size-1)
}

func (m *DirectMapper) GetRegisterReload() RegisterReloadPlan {
	return RegisterReloadPlan{Registers: map[string]uint64{}}
}
