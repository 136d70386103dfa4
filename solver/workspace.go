package solver

import (
	"math/rand/v2"

	"github.com/openhwgroup/force-riscv-sub004/choice"
	"github.com/openhwgroup/force-riscv-sub004/constraint"
	"github.com/openhwgroup/force-riscv-sub004/forceerr"
	"github.com/openhwgroup/force-riscv-sub004/page"
	"github.com/openhwgroup/force-riscv-sub004/resource"
	"github.com/openhwgroup/force-riscv-sub004/vm"
)

// AddressSolvingShared is the solver's workspace for one addressing
// operand (spec.md §4.5). Setup fixes everything a candidate VA must
// satisfy; Solve drives the Init->Setup->SolveConstrained->Accept|Reject
// state machine, re-verifying every candidate against the mapper because
// mapping may allocate pages and shift the usable set.
type AddressSolvingShared struct {
	Mapper vm.Mapper
	Req    *page.GenPageRequest

	IsInstr   bool
	Size      uint64
	AlignMask uint64
	Target    *constraint.Set // optional user-supplied target constraint
	PCSpacing *constraint.Set

	// Reuse is the AddressReuseMode selected by Setup from the four
	// independent choices, gated off for instruction fetches and for
	// data-constrained requests (spec.md §4.5). ReuseSet reports whether
	// a mode was actually picked.
	Reuse    resource.DependencyType
	ReuseSet bool

	// ReuseLookup resolves a picked AddressReuseMode into the set of
	// virtual addresses previously read/written under that dependency
	// relation (spec.md Glossary's "policy governing whether a data
	// address previously read/written may be reused"). Set before Setup;
	// nil disables reuse filtering even when a mode is picked. Ordinarily
	// wired by generator.Generator to its resource.Queue, gated on entropy
	// stability.
	ReuseLookup func(resource.DependencyType) (*constraint.Set, bool)

	Pool  *constraint.Set // legal-VA candidate pool built by Setup
	State State
	VA    uint64

	lastTimestamp uint64
	reuseFilter   func(uint64) bool
}

// NewAddressSolvingShared returns a workspace bound to mapper, in the
// Init state.
func NewAddressSolvingShared(mapper vm.Mapper) *AddressSolvingShared {
	return &AddressSolvingShared{Mapper: mapper, State: Init}
}

// Setup fixes the addressing operand's constraints (spec.md §4.5): the
// page request, the target-value constraint, PC spacing keep-out,
// alignment, and the reuse-mode pick. pcSpacingSize of 0 disables the
// keep-out.
func (s *AddressSolvingShared) Setup(
	req *page.GenPageRequest,
	isInstr bool,
	size, alignMask uint64,
	target *constraint.Set,
	pc, pcSpacingSize uint64,
	reuseChoices *choice.Tree,
	r *rand.Rand,
) error {
	const op = "AddressSolvingShared.Setup"
	if size == 0 {
		return forceerr.New(forceerr.ConstraintMalformed, op, "size must be nonzero")
	}
	s.Req, s.IsInstr, s.Size, s.AlignMask, s.Target = req, isInstr, size, alignMask, target

	if !isInstr && target == nil && reuseChoices != nil {
		entry, err := reuseChoices.ChooseEntry(r)
		if err == nil {
			if dep, ok := parseDependencyType(entry.Name); ok {
				s.Reuse, s.ReuseSet = dep, true
			}
		}
	}
	if s.ReuseSet && s.ReuseLookup != nil {
		if set, ok := s.ReuseLookup(s.Reuse); ok {
			s.reuseFilter = set.ContainsValue
		} else {
			// No history to reuse yet; fall back to an unfiltered pool.
			s.ReuseSet = false
		}
	}

	pool := constraint.New()
	if err := pool.AddRange(0, ^uint64(0)); err != nil {
		return forceerr.Wrap(forceerr.InvariantViolation, op, "full-range seed failed", err)
	}
	s.Mapper.ApplyVirtualUsableConstraint(isInstr, s.reuseFilter, pool)
	pool.AlignWithSize(alignMask, size)
	if target != nil {
		pool.Apply(target)
	}
	if pcSpacingSize > 0 {
		spacing, err := constraint.FromRanges([2]uint64{pc, pc + pcSpacingSize - 1})
		if err != nil {
			return forceerr.Wrap(forceerr.ConstraintMalformed, op, "invalid PC spacing window", err)
		}
		pool.Subtract(spacing)
		s.PCSpacing = spacing
	}
	s.Pool = pool

	s.lastTimestamp = s.Mapper.Timestamp()
	s.State = Setup
	return nil
}

func parseDependencyType(name string) (resource.DependencyType, bool) {
	switch name {
	case "ReadAfterRead":
		return resource.ReadAfterRead, true
	case "ReadAfterWrite":
		return resource.ReadAfterWrite, true
	case "WriteAfterRead":
		return resource.WriteAfterRead, true
	case "WriteAfterWrite":
		return resource.WriteAfterWrite, true
	default:
		return 0, false
	}
}

// Solve drives SolveConstrained: pick a candidate from the pool, call
// mapTargetAddressRange, and on rejection drop the candidate and retry.
// Retries are bounded by the pool's remaining size (spec.md §4.5); genuine
// exhaustion returns NoAddressSolution.
func (s *AddressSolvingShared) Solve(r *rand.Rand) (uint64, error) {
	const op = "AddressSolvingShared.Solve"
	if s.State != Setup {
		return 0, forceerr.New(forceerr.InvariantViolation, op, "Solve called outside the Setup state")
	}
	s.State = SolveConstrained
	working := s.Pool.Clone()
	for {
		if working.IsEmpty() {
			s.State = Reject
			return 0, forceerr.New(forceerr.NoAddressSolution, op, "exhausted every candidate in the pool")
		}
		va, err := working.ChooseValue(r)
		if err != nil {
			s.State = Reject
			return 0, forceerr.Wrap(forceerr.NoAddressSolution, op, "failed to sample a candidate", err)
		}
		ok, err := s.mapTargetAddressRange(r, va)
		if err != nil {
			if forceerr.Recoverable(err) {
				working.SubValue(va)
				continue
			}
			return 0, err
		}
		if ok {
			s.State = Accept
			s.VA = va
			return va, nil
		}
		working.SubValue(va)
	}
}

// mapTargetAddressRange maps the pages backing [va, va+Size) and
// re-verifies the candidate, refreshing the local pool first if the
// mapper's vm_timestamp advanced since Setup or the last refresh
// (spec.md §4.5).
func (s *AddressSolvingShared) mapTargetAddressRange(r *rand.Rand, va uint64) (bool, error) {
	if s.Mapper.Timestamp() != s.lastTimestamp {
		s.refreshPool()
	}
	if err := s.Mapper.MapAddressRange(r, va, s.Size, s.IsInstr, s.Req); err != nil {
		return false, err
	}
	s.lastTimestamp = s.Mapper.Timestamp()
	return s.Mapper.VerifyVirtualAddress(va, s.Size, s.IsInstr, s.Req), nil
}

func (s *AddressSolvingShared) refreshPool() {
	pool := constraint.New()
	pool.AddRange(0, ^uint64(0)) //nolint:errcheck // 0 <= max always valid
	s.Mapper.ApplyVirtualUsableConstraint(s.IsInstr, s.reuseFilter, pool)
	pool.AlignWithSize(s.AlignMask, s.Size)
	if s.Target != nil {
		pool.Apply(s.Target)
	}
	if s.PCSpacing != nil {
		pool.Subtract(s.PCSpacing)
	}
	s.Pool = pool
}

// Tag applies an 8-bit top-byte tag to a solved VA (spec.md §4.5's
// solve_free "optionally tag it"), a common top-byte-ignore addressing
// mode: the top 8 bits carry metadata rather than address bits.
func Tag(va uint64, tag uint8) uint64 {
	const topByte = uint64(0xFF) << 56
	return (va &^ topByte) | (uint64(tag) << 56)
}
