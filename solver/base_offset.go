package solver

import (
	"math/rand/v2"

	"github.com/openhwgroup/force-riscv-sub004/constraint"
	"github.com/openhwgroup/force-riscv-sub004/forceerr"
	"github.com/openhwgroup/force-riscv-sub004/register"
)

// signedImmediateSet returns the set of raw (wraparound two's-complement)
// uint64 encodings that represent a legal bits-wide signed immediate:
// [0, 2^(bits-1)-1] for non-negative values and
// [2^64-2^(bits-1), 2^64-1] for negative ones.
func signedImmediateSet(bits uint8) *constraint.Set {
	half := uint64(1) << (bits - 1)
	s := constraint.New()
	s.AddRange(0, half-1)                //nolint:errcheck // half-1 >= 0 always
	s.AddRange(^uint64(0)-half+1, ^uint64(0)) //nolint:errcheck // well-formed range by construction
	return s
}

// signExtend interprets the low bits bits of raw as two's complement and
// sign-extends to int64.
func signExtend(raw uint64, bits uint8) int64 {
	shift := 64 - bits
	return int64(raw<<shift) >> shift
}

// BaseOffsetSolvingShared solves a single base register plus a signed
// immediate offset (spec.md §4.5). FreeOffset generates the offset once,
// lazily, and caches it: the base register's value is read once, on the
// first FreeOffset call, and never re-read mid-solve.
type BaseOffsetSolvingShared struct {
	*AddressSolvingShared
	BaseRegister *register.Register
	OffsetBits   uint8

	baseValue  uint64
	haveOffset bool
	offset     int64
}

// NewBaseOffsetSolvingShared wraps an already-Setup workspace with a base
// register and the immediate's bit width.
func NewBaseOffsetSolvingShared(ws *AddressSolvingShared, base *register.Register, offsetBits uint8) *BaseOffsetSolvingShared {
	return &BaseOffsetSolvingShared{AddressSolvingShared: ws, BaseRegister: base, OffsetBits: offsetBits}
}

// FreeOffset returns the (lazily generated, then cached) signed offset
// such that BaseRegister + offset lies in the workspace's candidate pool.
func (s *BaseOffsetSolvingShared) FreeOffset(r *rand.Rand) (int64, error) {
	const op = "BaseOffsetSolvingShared.FreeOffset"
	if s.haveOffset {
		return s.offset, nil
	}
	baseVal, err := s.BaseRegister.Read()
	if err != nil {
		return 0, err
	}
	s.baseValue = baseVal

	candidates := s.Pool.Clone()
	candidates.SubtractFromElements(baseVal)
	candidates.Apply(signedImmediateSet(s.OffsetBits))
	if candidates.IsEmpty() {
		return 0, forceerr.New(forceerr.NoAddressSolution, op, "no offset in range satisfies the target pool")
	}
	raw, err := candidates.ChooseValue(r)
	if err != nil {
		return 0, forceerr.Wrap(forceerr.NoAddressSolution, op, "failed to sample an offset", err)
	}
	s.offset = signExtend(raw, s.OffsetBits)
	s.haveOffset = true
	return s.offset, nil
}

// Solve computes base+offset, maps and verifies it once; BaseOffset never
// regenerates the offset on rejection (spec.md §4.5: "generates the
// offset once lazily"), so a rejection here is a terminal
// NoAddressSolution for this operand.
func (s *BaseOffsetSolvingShared) Solve(r *rand.Rand) (uint64, int64, error) {
	const op = "BaseOffsetSolvingShared.Solve"
	if s.State != Setup {
		return 0, 0, forceerr.New(forceerr.InvariantViolation, op, "Solve called outside the Setup state")
	}
	offset, err := s.FreeOffset(r)
	if err != nil {
		s.State = Reject
		return 0, 0, err
	}
	s.State = SolveConstrained
	va := uint64(int64(s.baseValue) + offset)
	ok, err := s.mapTargetAddressRange(r, va)
	if err != nil {
		s.State = Reject
		return 0, 0, err
	}
	if !ok {
		s.State = Reject
		return 0, 0, forceerr.New(forceerr.NoAddressSolution, op, "base+offset candidate failed verification after mapping")
	}
	s.State = Accept
	s.VA = va
	return va, offset, nil
}

// BaseOffsetShiftSolvingShared is BaseOffsetSolvingShared with the
// immediate scaled by a constant shift before being added to the base
// (spec.md §4.5): effective alignment becomes max(arch align, scale
// align).
type BaseOffsetShiftSolvingShared struct {
	*AddressSolvingShared
	BaseRegister *register.Register
	OffsetBits   uint8 // width of the *encoded* (pre-scale) immediate
	Shift        uint8 // scale = 1 << Shift

	baseValue  uint64
	haveOffset bool
	offset     int64
}

func NewBaseOffsetShiftSolvingShared(ws *AddressSolvingShared, base *register.Register, offsetBits, shift uint8) *BaseOffsetShiftSolvingShared {
	return &BaseOffsetShiftSolvingShared{AddressSolvingShared: ws, BaseRegister: base, OffsetBits: offsetBits, Shift: shift}
}

func (s *BaseOffsetShiftSolvingShared) FreeOffset(r *rand.Rand) (int64, error) {
	const op = "BaseOffsetShiftSolvingShared.FreeOffset"
	if s.haveOffset {
		return s.offset, nil
	}
	baseVal, err := s.BaseRegister.Read()
	if err != nil {
		return 0, err
	}
	s.baseValue = baseVal
	stride := uint64(1) << s.Shift

	raw := s.Pool.Clone()
	raw.SubtractFromElements(baseVal)
	if err := raw.DivideElementsWithFactorRangeUnionedWithZero(stride, 0, ^uint64(0)>>s.Shift); err != nil {
		return 0, forceerr.Wrap(forceerr.ConstraintMalformed, op, "stride division failed", err)
	}
	raw.Apply(signedImmediateSet(s.OffsetBits))
	if raw.IsEmpty() {
		return 0, forceerr.New(forceerr.NoAddressSolution, op, "no scaled offset satisfies the target pool")
	}
	quotient, err := raw.ChooseValue(r)
	if err != nil {
		return 0, forceerr.Wrap(forceerr.NoAddressSolution, op, "failed to sample a scaled offset", err)
	}
	s.offset = signExtend(quotient, s.OffsetBits) * int64(stride)
	s.haveOffset = true
	return s.offset, nil
}

func (s *BaseOffsetShiftSolvingShared) Solve(r *rand.Rand) (uint64, int64, error) {
	const op = "BaseOffsetShiftSolvingShared.Solve"
	if s.State != Setup {
		return 0, 0, forceerr.New(forceerr.InvariantViolation, op, "Solve called outside the Setup state")
	}
	offset, err := s.FreeOffset(r)
	if err != nil {
		s.State = Reject
		return 0, 0, err
	}
	s.State = SolveConstrained
	va := uint64(int64(s.baseValue) + offset)
	ok, err := s.mapTargetAddressRange(r, va)
	if err != nil {
		s.State = Reject
		return 0, 0, err
	}
	if !ok {
		s.State = Reject
		return 0, 0, forceerr.New(forceerr.NoAddressSolution, op, "scaled base+offset candidate failed verification after mapping")
	}
	s.State = Accept
	s.VA = va
	return va, offset, nil
}
