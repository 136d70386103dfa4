package solver

import (
	"math/rand/v2"

	"github.com/openhwgroup/force-riscv-sub004/choice"
	"github.com/openhwgroup/force-riscv-sub004/constraint"
	"github.com/openhwgroup/force-riscv-sub004/page"
)

// RegisterBranchSolvingShared solves a branch-target address. Its only
// specialisation over AddressSolvingShared is the PC spacing keep-out:
// branch targets use a wider keep-out (two instructions' worth, aligned
// to the instruction size) than load/store addressing does, to avoid
// landing a branch target inside the instruction stream it is part of
// (spec.md §4.5).
type RegisterBranchSolvingShared struct {
	*AddressSolvingShared
}

func NewRegisterBranchSolvingShared(ws *AddressSolvingShared) *RegisterBranchSolvingShared {
	return &RegisterBranchSolvingShared{AddressSolvingShared: ws}
}

// SetupBranch is Setup specialised for branch targets: pcSpacingSize is
// fixed at 2*instrSize (aligned to instrSize) regardless of the caller's
// argument, and the request is always treated as instruction-side.
func (s *RegisterBranchSolvingShared) SetupBranch(
	req *page.GenPageRequest,
	size, alignMask uint64,
	target *constraint.Set,
	pc uint64, instrSize uint64,
	reuseChoices *choice.Tree,
	r *rand.Rand,
) error {
	spacing := 2 * instrSize
	return s.AddressSolvingShared.Setup(req, true, size, alignMask, target, pc&^(instrSize-1), spacing, reuseChoices, r)
}
