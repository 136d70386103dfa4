package page

import (
	"math/rand/v2"

	"github.com/openhwgroup/force-riscv-sub004/constraint"
	"github.com/openhwgroup/force-riscv-sub004/forceerr"
)

// MappingStrategy chooses a virtual base address for a mapping request
// given the currently free virtual-address constraint. Recovered from the
// original source's VmFlatMappingStrategy/VmRandomMappingStrategy split
// (SPEC_FULL.md §5): GenPageRequest.FlatMap selects which implementation
// VmMapper uses, rather than branching inline inside one allocation
// function.
type MappingStrategy interface {
	ChooseVA(r *rand.Rand, usableVA *constraint.Set, info SizeInfo, req *GenPageRequest) (uint64, error)
}

// FlatMappingStrategy requires VA == PA: it only accepts the request's
// explicit PA field and verifies it lies in the usable VA range.
type FlatMappingStrategy struct{}

func (FlatMappingStrategy) ChooseVA(_ *rand.Rand, usableVA *constraint.Set, info SizeInfo, req *GenPageRequest) (uint64, error) {
	if req == nil || req.PA == nil {
		return 0, forceerr.New(forceerr.PageAllocationFailed, "FlatMappingStrategy.ChooseVA", "flat mapping requires an explicit PA")
	}
	va := *req.PA
	if !usableVA.ContainsRange(va, va+info.Size-1) {
		return 0, forceerr.New(forceerr.PageAllocationFailed, "FlatMappingStrategy.ChooseVA", "requested flat VA/PA is not in the usable range")
	}
	return va, nil
}

// RandomMappingStrategy samples a size/alignment-satisfying VA uniformly
// from the usable set.
type RandomMappingStrategy struct{}

func (RandomMappingStrategy) ChooseVA(r *rand.Rand, usableVA *constraint.Set, info SizeInfo, _ *GenPageRequest) (uint64, error) {
	candidate := usableVA.Clone()
	candidate.AlignWithSize(info.AlignMask, info.Size)
	if candidate.IsEmpty() {
		return 0, forceerr.New(forceerr.PageAllocationFailed, "RandomMappingStrategy.ChooseVA", "no usable VA range satisfies size/alignment")
	}
	return candidate.ChooseValue(r)
}

// SelectStrategy returns the MappingStrategy named by req.FlatMap.
func SelectStrategy(req *GenPageRequest) MappingStrategy {
	if req != nil && req.FlatMap {
		return FlatMappingStrategy{}
	}
	return RandomMappingStrategy{}
}
